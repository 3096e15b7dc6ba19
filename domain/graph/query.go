package graph

import (
	"fmt"
	"strings"

	"github.com/emergent-company/primary-api/internal/graphdb"
	"github.com/emergent-company/primary-api/pkg/apperror"
)

// builder assembles a Cypher statement. Structural tokens (labels, property
// names, relationship types) are checked before they are written and always
// backtick-quoted; every value goes through param.
type builder struct {
	sb     strings.Builder
	params map[string]any
}

func newBuilder() *builder {
	return &builder{params: map[string]any{}}
}

func (b *builder) write(parts ...string) *builder {
	for _, p := range parts {
		b.sb.WriteString(p)
	}
	return b
}

func (b *builder) param(v any) string {
	name := fmt.Sprintf("p%d", len(b.params))
	b.params[name] = v
	return "$" + name
}

// node writes "(v:`Label` {id: $pN})", leaving out whichever part is empty.
func (b *builder) node(variable string, label Label, id *string) *builder {
	b.write("(", variable)
	if label != "" {
		b.write(":", quote(string(label)))
	}
	if id != nil {
		b.write(" {id: ", b.param(*id), "}")
	}
	return b.write(")")
}

func (b *builder) statement(write bool) graphdb.Statement {
	return graphdb.Statement{
		Cypher: b.sb.String(),
		Params: b.params,
		Write:  write,
	}
}

func quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func checkLabel(l Label, required bool) error {
	if l == "" {
		if required {
			return apperror.NewInvalidInput("label is required")
		}
		return nil
	}
	if !l.Valid() {
		return apperror.NewInvalidInput(fmt.Sprintf("unknown label %q", string(l)))
	}
	return nil
}

func checkRef(r Ref) error {
	if err := checkLabel(r.Label, false); err != nil {
		return err
	}
	if r.ID == "" {
		return apperror.NewInvalidInput("id is required")
	}
	return nil
}

func checkRelType(t string, required bool) error {
	if t == "" && !required {
		return nil
	}
	if !relTypePattern.MatchString(t) {
		return apperror.NewInvalidInput(fmt.Sprintf("invalid relationship type %q", t))
	}
	return nil
}

func createNodeStatement(label Label, props map[string]any) (graphdb.Statement, error) {
	if err := checkLabel(label, true); err != nil {
		return graphdb.Statement{}, err
	}
	b := newBuilder()
	b.write("CREATE (n:", quote(string(label)), " ", b.param(props), ") RETURN n")
	return b.statement(true), nil
}

// where appends the property filter of q, if any, for variable n.
func (b *builder) where(q NodeQuery) error {
	if q.Property == "" {
		return nil
	}
	if err := checkPropertyName(q.Property); err != nil {
		return err
	}
	b.write(" WHERE n.", quote(q.Property))
	switch q.Match {
	case MatchContains:
		b.write(" CONTAINS ", b.param(fmt.Sprint(q.Value)))
	case "", MatchExact:
		b.write(" = ", b.param(q.Value))
	default:
		return apperror.NewInvalidInput(fmt.Sprintf("unknown match mode %q", q.Match))
	}
	return nil
}

func findNodesStatement(q NodeQuery) (graphdb.Statement, error) {
	if err := checkLabel(q.Label, false); err != nil {
		return graphdb.Statement{}, err
	}
	b := newBuilder()
	b.write("MATCH ").node("n", q.Label, nil)
	if err := b.where(q); err != nil {
		return graphdb.Statement{}, err
	}
	b.write(" RETURN n ORDER BY n.id")
	return b.statement(false), nil
}

func countNodesStatement(q NodeQuery) (graphdb.Statement, error) {
	if err := checkLabel(q.Label, false); err != nil {
		return graphdb.Statement{}, err
	}
	b := newBuilder()
	b.write("MATCH ").node("n", q.Label, nil)
	if err := b.where(q); err != nil {
		return graphdb.Statement{}, err
	}
	b.write(" RETURN count(n) AS count")
	return b.statement(false), nil
}

func updateNodeStatement(ref Ref, set map[string]any, remove []string) (graphdb.Statement, error) {
	if err := checkRef(ref); err != nil {
		return graphdb.Statement{}, err
	}
	if len(set) == 0 && len(remove) == 0 {
		return graphdb.Statement{}, apperror.NewInvalidInput("no properties to update")
	}

	b := newBuilder()
	b.write("MATCH ").node("n", ref.Label, &ref.ID)

	if len(set) > 0 {
		assignments := make([]string, 0, len(set))
		for _, k := range sortedKeys(set) {
			if err := checkPropertyName(k); err != nil {
				return graphdb.Statement{}, err
			}
			assignments = append(assignments, "n."+quote(k)+" = "+b.param(set[k]))
		}
		b.write(" SET ", strings.Join(assignments, ", "))
	}

	if len(remove) > 0 {
		items := make([]string, 0, len(remove))
		for _, k := range remove {
			if err := checkPropertyName(k); err != nil {
				return graphdb.Statement{}, err
			}
			items = append(items, "n."+quote(k))
		}
		b.write(" REMOVE ", strings.Join(items, ", "))
	}

	b.write(" RETURN n")
	return b.statement(true), nil
}

func deleteNodeStatement(ref Ref) (graphdb.Statement, error) {
	if err := checkRef(ref); err != nil {
		return graphdb.Statement{}, err
	}
	b := newBuilder()
	b.write("MATCH ").node("n", ref.Label, &ref.ID)
	b.write(" DETACH DELETE n RETURN count(*) AS deleted")
	return b.statement(true), nil
}

func mergeRelationshipStatement(start Ref, relType string, end Ref, props map[string]any) (graphdb.Statement, error) {
	if err := checkRef(start); err != nil {
		return graphdb.Statement{}, err
	}
	if err := checkRef(end); err != nil {
		return graphdb.Statement{}, err
	}
	if err := checkRelType(relType, true); err != nil {
		return graphdb.Statement{}, err
	}

	b := newBuilder()
	b.write("MATCH ").node("a", start.Label, &start.ID)
	b.write(" MATCH ").node("b", end.Label, &end.ID)
	b.write(" MERGE (a)-[r:", quote(relType), "]->(b)")
	if len(props) > 0 {
		b.write(" ON CREATE SET r += ", b.param(props))
	}
	b.write(" RETURN type(r) AS type")
	return b.statement(true), nil
}

// mergeLinkedNodeStatement merges target by id, setting onCreate only when it
// is new, then merges the edge start -> target.
func mergeLinkedNodeStatement(start Ref, relType string, target Ref, onCreate map[string]any) (graphdb.Statement, error) {
	if err := checkRef(start); err != nil {
		return graphdb.Statement{}, err
	}
	if err := checkLabel(target.Label, true); err != nil {
		return graphdb.Statement{}, err
	}
	if err := checkRef(target); err != nil {
		return graphdb.Statement{}, err
	}
	if err := checkRelType(relType, true); err != nil {
		return graphdb.Statement{}, err
	}

	b := newBuilder()
	b.write("MATCH ").node("a", start.Label, &start.ID)
	b.write(" MERGE ").node("c", target.Label, &target.ID)
	if len(onCreate) > 0 {
		b.write(" ON CREATE SET c += ", b.param(onCreate))
	}
	b.write(" MERGE (a)-[r:", quote(relType), "]->(c) RETURN c")
	return b.statement(true), nil
}

func deleteRelationshipsStatement(start Ref, relType string, end *Ref) (graphdb.Statement, error) {
	if err := checkRef(start); err != nil {
		return graphdb.Statement{}, err
	}
	if err := checkRelType(relType, true); err != nil {
		return graphdb.Statement{}, err
	}

	b := newBuilder()
	b.write("MATCH ").node("a", start.Label, &start.ID)
	b.write("-[r:", quote(relType), "]->")
	if end != nil {
		if err := checkRef(*end); err != nil {
			return graphdb.Statement{}, err
		}
		b.node("b", end.Label, &end.ID)
	} else {
		b.write("()")
	}
	b.write(" DELETE r RETURN count(*) AS deleted")
	return b.statement(true), nil
}

func outgoingStatement(ref Ref, relType string) (graphdb.Statement, error) {
	if err := checkRef(ref); err != nil {
		return graphdb.Statement{}, err
	}
	if err := checkRelType(relType, false); err != nil {
		return graphdb.Statement{}, err
	}

	b := newBuilder()
	b.write("MATCH ").node("n", ref.Label, &ref.ID)
	if relType != "" {
		b.write("-[r:", quote(relType), "]->(m)")
	} else {
		b.write("-[r]->(m)")
	}
	b.write(" RETURN type(r) AS relationship_type, labels(m) AS end_node_labels, m.id AS end_node_id, m",
		" ORDER BY relationship_type, end_node_id")
	return b.statement(false), nil
}

var (
	nodeCountStatement = graphdb.Statement{
		Cypher: "MATCH (n) RETURN count(n) AS count",
	}
	labelCountStatement = graphdb.Statement{
		Cypher: "MATCH (n) UNWIND labels(n) AS label RETURN label, count(*) AS count",
	}
	relTypeCountStatement = graphdb.Statement{
		Cypher: "MATCH ()-[r]->() RETURN type(r) AS type, count(*) AS count",
	}
)
