package errors

// Planner error codes. The code string travels with the error so
// callers can branch on the failure class without string matching.
const (
	// InternalError marks invariant violations inside the planner.
	InternalError = "XP000"
	// MalformedExpression marks a predicate tree or filter document
	// that does not satisfy the planner's input preconditions.
	MalformedExpression = "XP001"
	// InvalidIndexID marks a relevance tag or assignment referencing
	// an index id outside the catalog.
	InvalidIndexID = "XP002"
	// InvalidCatalog marks a catalog entry that fails validation.
	InvalidCatalog = "XP003"
	// FeatureNotSupported marks functionality outside the current
	// enumeration policy.
	FeatureNotSupported = "XP004"
	// ConfigInvalid marks a configuration file that fails validation.
	ConfigInvalid = "XP005"
	// IOError marks a failure reading external inputs such as catalog
	// files or database connections.
	IOError = "XP006"
)
