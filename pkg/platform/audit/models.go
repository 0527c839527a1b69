package audit

import (
	"fmt"
	"slices"

	"pawtrail/pkg/platform/sentinel"
)

// Source names the subsystem that owns an audit log.
type Source string

const (
	SourceFeatureFlags      Source = "feature_flags"
	SourceCurrencyFormatter Source = "currency_formatter"
	SourceStringUtils       Source = "string_utils"
	SourceFilterBar         Source = "filter_bar"
	SourceFormValidator     Source = "form_validator"
	SourceSpotlightIndex    Source = "spotlight_index"
	SourceDemoData          Source = "demo_data"
	SourceMigration         Source = "migration"
	SourceBackup            Source = "backup"
	SourceExport            Source = "export"
	SourceDiagnostics       Source = "diagnostics"
)

var knownSources = []Source{
	SourceBackup,
	SourceCurrencyFormatter,
	SourceDemoData,
	SourceDiagnostics,
	SourceExport,
	SourceFeatureFlags,
	SourceFilterBar,
	SourceFormValidator,
	SourceMigration,
	SourceSpotlightIndex,
	SourceStringUtils,
}

// KnownSources returns every source in name order.
func KnownSources() []Source {
	return slices.Clone(knownSources)
}

// ParseSource validates a source name.
func ParseSource(s string) (Source, error) {
	src := Source(s)
	if slices.Contains(knownSources, src) {
		return src, nil
	}
	return "", fmt.Errorf("audit source %q: %w", s, sentinel.ErrNotFound)
}

// Category classifies audit entries by their primary purpose.
type Category string

const (
	// CategoryCompliance covers changes to business records that must be
	// explainable later: backups, exports, imports, migrations.
	CategoryCompliance Category = "compliance"

	// CategorySecurity covers actions that alter or remove audit history or
	// access controls.
	CategorySecurity Category = "security"

	// CategoryOperations covers routine activity that is only useful for
	// debugging and support.
	CategoryOperations Category = "operations"
)

// Action is what happened.
type Action string

const (
	// Feature flags
	ActionFlagChanged Action = "flag_changed"
	ActionFlagsReset  Action = "flags_reset"

	// Formatting and validation
	ActionCurrencyFormatted    Action = "currency_formatted"
	ActionCurrencyFormatFailed Action = "currency_format_failed"
	ActionStringTransformed    Action = "string_transformed"
	ActionFilterApplied        Action = "filter_applied"
	ActionFormValidated        Action = "form_validated"
	ActionFormRejected         Action = "form_rejected"

	// Indexing and demo data
	ActionSpotlightIndexed Action = "spotlight_indexed"
	ActionSpotlightRemoved Action = "spotlight_removed"
	ActionDemoDataSeeded   Action = "demo_data_seeded"
	ActionDemoDataCleared  Action = "demo_data_cleared"

	// Data lifecycle
	ActionMigrationStarted   Action = "migration_started"
	ActionMigrationCompleted Action = "migration_completed"
	ActionMigrationFailed    Action = "migration_failed"
	ActionBackupCreated      Action = "backup_created"
	ActionBackupRestored     Action = "backup_restored"
	ActionExportCreated      Action = "export_created"
	ActionImportCompleted    Action = "import_completed"

	// Audit history itself
	ActionLogCleared  Action = "log_cleared"
	ActionLogImported Action = "log_imported"
)

// actionCategories maps each action to its category.
var actionCategories = map[Action]Category{
	ActionBackupCreated:      CategoryCompliance,
	ActionBackupRestored:     CategoryCompliance,
	ActionExportCreated:      CategoryCompliance,
	ActionImportCompleted:    CategoryCompliance,
	ActionMigrationStarted:   CategoryCompliance,
	ActionMigrationCompleted: CategoryCompliance,
	ActionMigrationFailed:    CategoryCompliance,

	ActionLogCleared:   CategorySecurity,
	ActionLogImported:  CategorySecurity,
	ActionFlagsReset:   CategorySecurity,
	ActionFormRejected: CategorySecurity,
}

// Category returns the Category for this action.
// Unknown actions default to CategoryOperations.
func (a Action) Category() Category {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Entry is the payload recorded in every grooming audit log.
type Entry struct {
	Source    Source   `json:"source"`
	Action    Action   `json:"action"`
	Category  Category `json:"category"`
	Actor     string   `json:"actor,omitempty"`
	Target    string   `json:"target,omitempty"`
	Before    string   `json:"before,omitempty"`
	After     string   `json:"after,omitempty"`
	Detail    string   `json:"detail,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// Clone returns a copy that shares no memory with e.
func (e Entry) Clone() Entry {
	e.Tags = slices.Clone(e.Tags)
	return e
}
