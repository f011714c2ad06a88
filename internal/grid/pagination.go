// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of portalctl

package grid

import "fmt"

// windowSize caps the numbered page buttons.
const windowSize = 5

// TotalPages returns the page count for total records of size per page.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Window returns the page numbers shown around current.
func Window(current, totalPages int) []int {
	n := min(windowSize, totalPages)
	if n <= 0 {
		return nil
	}

	var first int
	switch {
	case totalPages <= windowSize, current <= 3:
		first = 1
	case current >= totalPages-2:
		first = totalPages - windowSize + 1
	default:
		first = current - 2
	}
	pages := make([]int, n)
	for i := range pages {
		pages[i] = first + i
	}

	return pages
}

// Info renders the range summary, empty when there is nothing to show.
func Info(page, size, total int) string {
	if total <= 0 || size <= 0 {
		return ""
	}
	from := (page-1)*size + 1
	to := min(page*size, total)

	return fmt.Sprintf("Showing %d to %d of %d entries", from, to, total)
}
