// Package commitstate provides the commit-state sequence number that tags
// cache generations.
//
// Whenever the owning storage engine advances its commit state, data cached
// under the previous sequence number is no longer served. Sources only hand
// out numbers; they never touch the cache.
package commitstate
