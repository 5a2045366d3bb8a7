package analysis

// SemanticType is the inferred role of a column for visualization.
type SemanticType string

const (
	Quantitative SemanticType = "quantitative"
	Nominal      SemanticType = "nominal"
	Ordinal      SemanticType = "ordinal"
	Temporal     SemanticType = "temporal"
	ID           SemanticType = "id"
)

// TypeOrder is the grouping order of the per-type column lists.
var TypeOrder = []SemanticType{Quantitative, ID, Ordinal, Nominal, Temporal}

// Role groups semantic types into measures and dimensions.
type Role string

const (
	Measure   Role = "measure"
	Dimension Role = "dimension"
)

// HighCardinality stands in for the cardinality of float columns, whose
// unique values are never enumerated.
const HighCardinality = 999

// RecordCountColumn marks a table as an existing rollup.
const RecordCountColumn = "Number of Records"

// MinMax is the numeric range of a column.
type MinMax struct {
	Min float64
	Max float64
}

// NumSummary holds descriptive statistics for a numeric column.
type NumSummary struct {
	Count  int
	Mean   float64
	Std    float64
	Median float64
}

// Stats is the raw per-column statistics of a table.
type Stats struct {
	UniqueValues map[string][]any
	Cardinality  map[string]int
	MinMax       map[string]MinMax
	Summaries    map[string]NumSummary
}

// Profile is the complete derived metadata of a table.
type Profile struct {
	Rows    int
	Columns []string
	Stats
	DataTypeLookup  map[string]SemanticType
	DataType        map[SemanticType][]string
	DataModelLookup map[string]Role
	DataModel       map[Role][]string
	PreAggregated   bool
	Advisories      []string
}

// ColumnsOf returns the columns of type st in declaration order.
func (p *Profile) ColumnsOf(st SemanticType) []string {
	return append([]string(nil), p.DataType[st]...)
}

// IDColumns returns the columns classified as identifiers.
func (p *Profile) IDColumns() []string { return p.ColumnsOf(ID) }
