package migrations

import (
	"github.com/jobika/jobika-migrate/internal/database"
)

// GetSchemaSteps returns all registered target schema steps
func GetSchemaSteps() []database.SchemaStep {
	return []database.SchemaStep{
		{
			Version: "20250101_001",
			Name:    "add_application_pair_index",
			Run:     AddApplicationPairIndex,
		},
		{
			Version: "20250101_002",
			Name:    "add_chat_session_index",
			Run:     AddChatSessionIndex,
		},
	}
}
