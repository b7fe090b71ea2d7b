package metrics

// AuthoredBlockPoints is the fixed era-points reward for authoring a block.
// Backing points net it out so block authors are not overcounted.
const AuthoredBlockPoints = 20

// BackingPoints returns the era points attributable to parachain backing
// during a session: points earned since the session start minus the
// block-authoring reward, clamped at zero.
func BackingPoints(endPoints, startPoints uint64, authoredBlocks int) uint64 {
	earned := int64(endPoints) - int64(startPoints) - int64(authoredBlocks)*AuthoredBlockPoints
	if earned < 0 {
		return 0
	}
	return uint64(earned)
}
