package dashboard

// Tier is the urgency of an expiring contract.
type Tier string

const (
	TierCritical Tier = "critical"
	TierWarning  Tier = "warning"
	TierNormal   Tier = "normal"
)

const (
	criticalDays = 7
	warningDays  = 30
)

// Urgency maps days until expiry to a tier. Overdue contracts are critical.
func Urgency(daysUntilExpiry int) Tier {
	switch {
	case daysUntilExpiry <= criticalDays:
		return TierCritical
	case daysUntilExpiry <= warningDays:
		return TierWarning
	default:
		return TierNormal
	}
}
