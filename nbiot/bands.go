package nbiot

// EARFCN ranges for the NB-IoT deployment bands this interface targets.
// Callers validating operator channel assignments can range-check against
// these.
const (
	EarfcnB8Low   = 3450
	EarfcnB8High  = 3799
	EarfcnB20Low  = 6150
	EarfcnB20High = 6449
)

// EarfcnBand returns the deployment band (8 or 20) containing the given
// EARFCN. The second return is false when the channel lies outside both
// bands.
func EarfcnBand(earfcn int) (int, bool) {
	switch {
	case earfcn >= EarfcnB8Low && earfcn <= EarfcnB8High:
		return 8, true
	case earfcn >= EarfcnB20Low && earfcn <= EarfcnB20High:
		return 20, true
	}
	return 0, false
}
