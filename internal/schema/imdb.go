package schema

// ColumnType is the portable column affinity used by the static definitions.
// Backends map it to their own SQL type names.
type ColumnType int

const (
	Text ColumnType = iota
	Integer
	Real
)

// ColumnDef is one column of a static table definition.
type ColumnDef struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
}

// ForeignKey is a declared (never enforced) reference.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// TableDef is a static CREATE TABLE description.
type TableDef struct {
	Name        string
	Columns     []ColumnDef
	ForeignKeys []ForeignKey
}

// FileMapping binds one source file to one destination table.
type FileMapping struct {
	File  string `mapstructure:"file"`
	Table string `mapstructure:"table"`
}

func refTitle(col string) ForeignKey {
	return ForeignKey{Column: col, RefTable: "title_basics", RefColumn: "tconst"}
}

func refName(col string) ForeignKey {
	return ForeignKey{Column: col, RefTable: "name_basics", RefColumn: "nconst"}
}

// IMDbTables returns the seven IMDb dataset tables in creation order.
func IMDbTables() []TableDef {
	return []TableDef{
		{
			Name: "title_basics",
			Columns: []ColumnDef{
				{Name: "tconst", Type: Text, PrimaryKey: true},
				{Name: "titleType", Type: Text},
				{Name: "primaryTitle", Type: Text},
				{Name: "originalTitle", Type: Text},
				{Name: "isAdult", Type: Integer},
				{Name: "startYear", Type: Integer},
				{Name: "endYear", Type: Integer},
				{Name: "runtimeMinutes", Type: Integer},
				{Name: "genres", Type: Text},
			},
		},
		{
			Name: "name_basics",
			Columns: []ColumnDef{
				{Name: "nconst", Type: Text, PrimaryKey: true},
				{Name: "primaryName", Type: Text},
				{Name: "birthYear", Type: Integer},
				{Name: "deathYear", Type: Integer},
				{Name: "primaryProfession", Type: Text},
				{Name: "knownForTitles", Type: Text},
			},
		},
		{
			Name: "title_akas",
			Columns: []ColumnDef{
				{Name: "titleId", Type: Text},
				{Name: "ordering", Type: Integer},
				{Name: "title", Type: Text},
				{Name: "region", Type: Text},
				{Name: "language", Type: Text},
				{Name: "types", Type: Text},
				{Name: "attributes", Type: Text},
				{Name: "isOriginalTitle", Type: Integer},
			},
			ForeignKeys: []ForeignKey{refTitle("titleId")},
		},
		{
			Name: "title_episode",
			Columns: []ColumnDef{
				{Name: "tconst", Type: Text},
				{Name: "parentTconst", Type: Text},
				{Name: "seasonNumber", Type: Integer},
				{Name: "episodeNumber", Type: Integer},
			},
			ForeignKeys: []ForeignKey{refTitle("tconst"), refTitle("parentTconst")},
		},
		{
			Name: "title_crew",
			Columns: []ColumnDef{
				{Name: "tconst", Type: Text},
				{Name: "directors", Type: Text},
				{Name: "writers", Type: Text},
			},
			ForeignKeys: []ForeignKey{refTitle("tconst"), refName("directors"), refName("writers")},
		},
		{
			Name: "title_principals",
			Columns: []ColumnDef{
				{Name: "tconst", Type: Text},
				{Name: "ordering", Type: Integer},
				{Name: "nconst", Type: Text},
				{Name: "category", Type: Text},
				{Name: "job", Type: Text},
				{Name: "characters", Type: Text},
			},
			ForeignKeys: []ForeignKey{refTitle("tconst"), refName("nconst")},
		},
		{
			Name: "title_ratings",
			Columns: []ColumnDef{
				{Name: "tconst", Type: Text},
				{Name: "averageRating", Type: Real},
				{Name: "numVotes", Type: Integer},
			},
			ForeignKeys: []ForeignKey{refTitle("tconst")},
		},
	}
}

// IMDbFiles returns the default dataset file to table mapping.
func IMDbFiles() []FileMapping {
	return []FileMapping{
		{File: "title.basics.tsv", Table: "title_basics"},
		{File: "title.ratings.tsv", Table: "title_ratings"},
		{File: "title.principals.tsv", Table: "title_principals"},
		{File: "title.crew.tsv", Table: "title_crew"},
		{File: "title.episode.tsv", Table: "title_episode"},
		{File: "title.akas.tsv", Table: "title_akas"},
		{File: "name.basics.tsv", Table: "name_basics"},
	}
}
