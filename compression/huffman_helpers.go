package compression

// bubbleSort orders construct nodes by descending frequency. Bubble sort
// is stable, which keeps the tree construction deterministic for tables
// that contain duplicate frequencies.
func bubbleSort(list []*huffmanConstructNode) {
	changed := true
	size := len(list)
	for changed {
		changed = false
		for i := 0; i < size-1; i++ {
			if list[i].Frequency < list[i+1].Frequency {
				list[i], list[i+1] = list[i+1], list[i]
				changed = true
			}
		}
		size--
	}
}
