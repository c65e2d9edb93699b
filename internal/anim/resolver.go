package anim

// FinalKeyframe resolves the value an animation must rest on once
// finished. Which endpoint is "last" depends on the repeat parity and
// the playback direction:
//
//   - no repeat, or RepeatLoop: the last keyframe going forward, the
//     first going backward.
//   - RepeatReverse / RepeatMirror: an odd repeat count lands playback on
//     the starting keyframe; negative speed flips the whole rule.
//
// bias, when non-nil, substitutes for the last keyframe whenever the
// resolved endpoint is the last one.
func FinalKeyframe[T any](keyframes []T, repeat int, repeatType RepeatType, bias *T, speed float64) T {
	last := len(keyframes) - 1
	flips := repeat > 0 && repeatType != "" && repeatType != RepeatLoop

	var index int
	if speed < 0 {
		index = 0
		if flips && repeat%2 == 0 {
			index = last
		}
	} else {
		index = last
		if flips && repeat%2 == 1 {
			index = 0
		}
	}

	if index > 0 && bias != nil {
		return *bias
	}
	return keyframes[index]
}
