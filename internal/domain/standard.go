package domain

// CodingStandard represents a coding standard configured for an organization
type CodingStandard struct {
	ID                   int64
	Name                 string
	IsDefault            bool
	IsDraft              bool
	EnabledToolsCount    int
	EnabledPatternsCount int
}

// RepositoryRef represents a repository bound to a coding standard
type RepositoryRef struct {
	RepositoryID int64
	Name         string
}
