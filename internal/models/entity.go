package models

import (
	"fmt"
	"sort"
	"strings"
)

// Entity names, which double as target table names
const (
	EntityUsers        = "users"
	EntityJobs         = "jobs"
	EntityResumes      = "resumes"
	EntityApplications = "applications"
	EntityChatMessages = "chat_messages"
)

// Entity describes one migrated table and the entities it references
type Entity struct {
	Name        string
	SourceTable string
	DependsOn   []string
}

// Entities lists every entity type in dependency order: parents always precede
// the entities whose foreign keys point at them.
var Entities = []Entity{
	{Name: EntityUsers, SourceTable: "users"},
	{Name: EntityJobs, SourceTable: "jobs"},
	{Name: EntityResumes, SourceTable: "resumes", DependsOn: []string{EntityUsers}},
	{Name: EntityApplications, SourceTable: "applications", DependsOn: []string{EntityUsers, EntityJobs}},
	{Name: EntityChatMessages, SourceTable: "chat_history", DependsOn: []string{EntityUsers}},
}

// EntityNames returns all entity names in dependency order
func EntityNames() []string {
	names := make([]string, len(Entities))
	for i, e := range Entities {
		names[i] = e.Name
	}
	return names
}

// LookupEntity returns the entity with the given name
func LookupEntity(name string) (Entity, bool) {
	for _, e := range Entities {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}

// IsValidEntity checks if a given entity name is known
func IsValidEntity(name string) bool {
	_, ok := LookupEntity(name)
	return ok
}

// OrderEntities validates the requested names and returns them in dependency
// order with duplicates removed. An empty request selects every entity.
func OrderEntities(names []string) ([]string, error) {
	if len(names) == 0 {
		return EntityNames(), nil
	}

	rank := make(map[string]int, len(Entities))
	for i, e := range Entities {
		rank[e.Name] = i
	}

	seen := make(map[string]bool, len(names))
	ordered := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if _, ok := rank[name]; !ok {
			return nil, fmt.Errorf("unknown entity %q (valid: %s)", name, strings.Join(EntityNames(), ", "))
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		ordered = append(ordered, name)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return rank[ordered[i]] < rank[ordered[j]]
	})
	return ordered, nil
}

// Row is one source record keyed by column name
type Row map[string]interface{}

// Record is a transformed row ready to be written to the target
type Record interface {
	// EntityName returns the entity type of the record
	EntityName() string
	// RecordID returns the identifier used as the idempotency key
	RecordID() string
}

// TargetModels returns one zero value per entity for schema creation, in dependency order
func TargetModels() []interface{} {
	return []interface{}{
		&User{},
		&Job{},
		&Resume{},
		&Application{},
		&ChatMessage{},
	}
}
