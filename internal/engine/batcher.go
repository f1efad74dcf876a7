package engine

import "github.com/bamsammich/sharesave/internal/share"

// splitBatches partitions files into contiguous batches of at most size
// entries, preserving order. The batches share files' backing array but are
// capped so that appending to one cannot overwrite the next.
func splitBatches(files []share.File, size int) [][]share.File {
	if len(files) == 0 || size < 1 {
		return nil
	}
	batches := make([][]share.File, 0, (len(files)+size-1)/size)
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		batches = append(batches, files[start:end:end])
	}
	return batches
}

// batchBytes returns the total size of files.
func batchBytes(files []share.File) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}
