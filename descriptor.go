package record

import (
	"github.com/go-openapi/inflect"
	"github.com/google/uuid"
)

// Defaults applied by NewDescriptor.
const (
	// DefaultPrimaryKey is the primary-key column assumed when none is set.
	DefaultPrimaryKey = "id"
	// DefaultConnection is the connection name assumed when none is set.
	DefaultConnection = "default"
)

// Descriptor holds the immutable metadata of one entity type: its table,
// primary-key column and the named connection it is served by. A Descriptor
// is created once per entity and must not be modified after first use.
type Descriptor struct {
	// Entity is the logical entity name, e.g. "UserProfile".
	Entity string
	// Table is the table name. Defaults to the storage-convention form of
	// Entity (e.g. "user_profile").
	Table string
	// PrimaryKey is the primary-key column name. Defaults to "id".
	PrimaryKey string
	// Connection names the connection the entity is served by.
	Connection string

	idGen func() string
}

// DescriptorOption configures a Descriptor.
type DescriptorOption func(*Descriptor)

// WithTable overrides the convention-derived table name.
func WithTable(name string) DescriptorOption {
	return func(d *Descriptor) { d.Table = name }
}

// WithPrimaryKey overrides the default "id" primary-key column.
func WithPrimaryKey(name string) DescriptorOption {
	return func(d *Descriptor) { d.PrimaryKey = name }
}

// WithConnection sets the named connection the entity is served by.
func WithConnection(name string) DescriptorOption {
	return func(d *Descriptor) { d.Connection = name }
}

// WithIDGenerator sets a generator for string primary keys. When set, Create
// fills the primary-key field with a generated value if the caller did not
// supply one. Entities with database-assigned numeric keys leave this unset.
func WithIDGenerator(gen func() string) DescriptorOption {
	return func(d *Descriptor) { d.idGen = gen }
}

// UUIDGenerator generates random UUID primary keys.
// Intended for use with WithIDGenerator.
var UUIDGenerator = uuid.NewString

// NewDescriptor returns the Descriptor for the given entity name with all
// defaults applied.
func NewDescriptor(entity string, opts ...DescriptorOption) *Descriptor {
	d := &Descriptor{
		Entity:     entity,
		PrimaryKey: DefaultPrimaryKey,
		Connection: DefaultConnection,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.Table == "" {
		d.Table = Underscore(entity)
	}
	return d
}

// Underscore converts a camel-case or mixed-case name to the storage naming
// convention, e.g. "UserName" becomes "user_name". The same conversion is
// applied to convention-derived table names and to column tokens parsed out
// of dynamic finder names.
func Underscore(name string) string {
	return inflect.Underscore(name)
}
