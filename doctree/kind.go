package doctree

type Kind int

const (
	Incomplete Kind = iota
	Boolean
	Integer
	Float
	String
	OffsetDateTime
	LocalDateTime
	LocalDate
	LocalTime
	Array
	Table
)

func (k Kind) String() string {
	switch k {
	case Incomplete:
		return "Incomplete"
	case Boolean:
		return "Boolean"
	case Integer:
		return "Integer"
	case Float:
		return "Float"
	case String:
		return "String"
	case OffsetDateTime:
		return "OffsetDateTime"
	case LocalDateTime:
		return "LocalDateTime"
	case LocalDate:
		return "LocalDate"
	case LocalTime:
		return "LocalTime"
	case Array:
		return "Array"
	case Table:
		return "Table"
	}
	return "<unknown kind>"
}

// IsLiteral reports whether values of kind k are scalars.
func (k Kind) IsLiteral() bool {
	return k >= Boolean && k <= LocalTime
}

type StringKind int

const (
	BasicString StringKind = iota
	LiteralString
	MultiLineBasicString
	MultiLineLiteralString
)

func (k StringKind) String() string {
	switch k {
	case BasicString:
		return "basic"
	case LiteralString:
		return "literal"
	case MultiLineBasicString:
		return "multi-line basic"
	case MultiLineLiteralString:
		return "multi-line literal"
	}
	return "<unknown string kind>"
}

// Quote returns the opening (and closing) delimiter for strings of kind k.
func (k StringKind) Quote() string {
	switch k {
	case LiteralString:
		return "'"
	case MultiLineBasicString:
		return `"""`
	case MultiLineLiteralString:
		return "'''"
	}
	return `"`
}

type ArrayKind int

const (
	// LiteralArray is an array written as [ ... ].
	LiteralArray ArrayKind = iota
	// ArrayOfTable holds the table of one [[header]].
	ArrayOfTable
	// ParentArrayOfTable stands for a header segment addressing the last
	// element of an existing array of tables, as in the a of [a.b] after [[a]].
	ParentArrayOfTable
)

func (k ArrayKind) String() string {
	switch k {
	case LiteralArray:
		return "array"
	case ArrayOfTable:
		return "array of tables"
	case ParentArrayOfTable:
		return "parent array of tables"
	}
	return "<unknown array kind>"
}

type TableKind int

const (
	RootTable TableKind = iota
	// HeaderTable is the table named by the last key of a [header].
	HeaderTable
	// ParentTable is an implicit table for a leading key of a [header].
	ParentTable
	InlineTable
	// ParentKey is an implicit table for a leading segment of a dotted key.
	ParentKey
	// KeyValueTable holds the last segment of a dotted key and its value.
	KeyValueTable
)

func (k TableKind) String() string {
	switch k {
	case RootTable:
		return "root"
	case HeaderTable:
		return "table"
	case ParentTable:
		return "parent table"
	case InlineTable:
		return "inline table"
	case ParentKey:
		return "parent key"
	case KeyValueTable:
		return "key value"
	}
	return "<unknown table kind>"
}
