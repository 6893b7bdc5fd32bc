package uspto

// Resource identifies one endpoint of the Open Data Portal application API.
// The zero value is the root application resource (metadata plus transaction
// history); the rest are sub-resources appended to the application path.
type Resource string

// Application API resources.
const (
	ResourceApplication     Resource = ""
	ResourceAdjustment      Resource = "adjustment"
	ResourceContinuity      Resource = "continuity"
	ResourceDocuments       Resource = "documents"
	ResourceAssignment      Resource = "assignment"
	ResourceAttorney        Resource = "attorney"
	ResourceForeignPriority Resource = "foreign-priority"
)

// Label returns the resource name used in logs and metrics.
func (r Resource) Label() string {
	if r == ResourceApplication {
		return "application"
	}
	return string(r)
}
