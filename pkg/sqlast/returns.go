package sqlast

// Return describes how one selection is read back from a result row.
// Positions are 0-based indexes into the select list.
type Return interface {
	returnNode()
}

// ScalarReturn is a single value.
type ScalarReturn struct {
	Alias    string
	Position int
	SQLType  string
}

// CompositeReturn is an embedded value spread over several columns.
type CompositeReturn struct {
	Alias      string
	Path       string
	Components []*AttributeReturn
}

// EntityReturn is an entity read from its identifier and attribute columns.
type EntityReturn struct {
	Alias string
	// Source is the query alias the entity was selected through.
	Source      string
	Entity      string
	IDName      string
	IDPositions []int
	Attributes  []*AttributeReturn
	Fetches     []*FetchReturn
}

// AttributeReturn reads one attribute. Positions has one entry per column;
// an entity valued attribute reads its foreign key columns.
type AttributeReturn struct {
	Name      string
	Positions []int
	SQLTypes  []string
}

// FetchReturn is an association fetched with its owner.
type FetchReturn struct {
	Attribute  string
	Collection bool
	Entity     *EntityReturn
}

// DynamicInstantiationReturn constructs Target from the argument returns.
type DynamicInstantiationReturn struct {
	Alias  string
	Target string
	Args   []*InstantiationArgReturn
}

// InstantiationArgReturn is one constructor argument.
type InstantiationArgReturn struct {
	Alias  string
	Return Return
}

func (*ScalarReturn) returnNode()               {}
func (*CompositeReturn) returnNode()            {}
func (*EntityReturn) returnNode()               {}
func (*DynamicInstantiationReturn) returnNode() {}
