package index

import (
	"github.com/spacetwo/spacetwo-chat/internal/db"
	"github.com/spacetwo/spacetwo-chat/internal/domain/profile"
)

// vectorAlias is how queries address fieldVector.
const vectorAlias = "vector"

// profileSchema indexes the filterable profile attributes as TAGs next to an HNSW cosine vector.
func profileSchema(name string, dim int, hnsw HNSWConfig) db.Schema {
	return db.Schema{
		Index:  indexName(name),
		Prefix: docPrefix(name),
		Fields: []db.Field{
			db.TagField(profile.FieldAvailability, ""),
			db.TagField(profile.FieldRoles, tagSep),
			db.TagField(profile.FieldStyles, tagSep),
			db.HNSWField(fieldVector, vectorAlias, dim, hnsw.M, hnsw.EFConstruct),
		},
	}
}
