package analytics

// dbscanCosine runs density-based clustering over cosine distance
// (1 - cosine similarity). Returns one label per vector; -1 marks an
// outlier. With minSamples <= 2 the clustering degenerates to connected
// components of the eps-neighborhood graph, so cluster membership does not
// depend on input order (labels are assigned in first-seen order).
func dbscanCosine(vectors [][]float64, eps float64, minSamples int) []int {
	n := len(vectors)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	if n == 0 {
		return labels
	}

	// Precompute the symmetric distance matrix once; the sets here are
	// small enough that O(n^2) beats an index structure.
	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := 1 - cosineSimilarity(vectors[i], vectors[j])
			if d <= eps {
				neighbors[i] = append(neighbors[i], j)
				if i != j {
					neighbors[j] = append(neighbors[j], i)
				}
			}
		}
	}

	visited := make([]bool, n)
	cluster := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		if len(neighbors[i]) < minSamples {
			continue // noise unless reached from a core point later
		}

		labels[i] = cluster
		queue := append([]int(nil), neighbors[i]...)
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]

			if labels[p] == -1 {
				labels[p] = cluster
			}
			if visited[p] {
				continue
			}
			visited[p] = true
			if len(neighbors[p]) >= minSamples {
				queue = append(queue, neighbors[p]...)
			}
		}
		cluster++
	}
	return labels
}
