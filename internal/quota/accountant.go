// Package quota provides storage accounting against the fixed offline quota
// and least-recently-used eviction of lesson packs.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/studyowl/offline/internal/pack"
)

const (
	// TotalBytes is the offline storage quota: 50 MiB.
	TotalBytes int64 = 50 * 1024 * 1024
	// NearLimitThreshold is the usage fraction at which Info flags
	// near-limit state.
	NearLimitThreshold = 0.8
)

// Info is a snapshot of quota usage.
type Info struct {
	UsedBytes      int64   `json:"usedBytes" yaml:"used_bytes"`
	AvailableBytes int64   `json:"availableBytes" yaml:"available_bytes"`
	TotalBytes     int64   `json:"totalBytes" yaml:"total_bytes"`
	// UsagePercentage is used/total*100, unrounded; callers round for display.
	UsagePercentage float64 `json:"usagePercentage" yaml:"usage_percentage"`
	IsNearLimit     bool    `json:"isNearLimit" yaml:"is_near_limit"`
}

// Accountant computes space used by downloaded content and reclaims space
// by evicting least-recently-accessed packs.
type Accountant struct {
	repo       pack.Repository
	guard      *pack.Guard
	totalBytes int64
}

// NewAccountant creates an Accountant over the pack repository. totalBytes
// <= 0 selects the default quota.
func NewAccountant(repo pack.Repository, guard *pack.Guard, totalBytes int64) *Accountant {
	if totalBytes <= 0 {
		totalBytes = TotalBytes
	}
	return &Accountant{repo: repo, guard: guard, totalBytes: totalBytes}
}

// UsedBytes returns the sum of sizeBytes across all downloaded packs.
func (a *Accountant) UsedBytes(ctx context.Context) (int64, error) {
	packs, err := a.repo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("repo.FindAll() > %w", err)
	}
	var used int64
	for i := range packs {
		used += packs[i].SizeBytes
	}
	return used, nil
}

// Info returns the current quota snapshot.
func (a *Accountant) Info(ctx context.Context) (Info, error) {
	used, err := a.UsedBytes(ctx)
	if err != nil {
		return Info{}, err
	}
	available := a.totalBytes - used
	if available < 0 {
		available = 0
	}
	percentage := float64(used) / float64(a.totalBytes) * 100
	return Info{
		UsedBytes:       used,
		AvailableBytes:  available,
		TotalBytes:      a.totalBytes,
		UsagePercentage: percentage,
		IsNearLimit:     percentage >= NearLimitThreshold*100,
	}, nil
}

// IsAvailable reports whether requiredBytes fit in the remaining quota.
func (a *Accountant) IsAvailable(ctx context.Context, requiredBytes int64) (bool, error) {
	info, err := a.Info(ctx)
	if err != nil {
		return false, err
	}
	return info.AvailableBytes >= requiredBytes, nil
}

// EvictLRU deletes packs in ascending lastAccessedAt order until the freed
// bytes reach targetBytes or no candidates remain. Packs with an in-flight
// download are skipped. Returns the bytes actually freed, which may be less
// than requested.
func (a *Accountant) EvictLRU(ctx context.Context, targetBytes int64) (int64, error) {
	packs, err := a.repo.FindByLastAccessed(ctx)
	if err != nil {
		return 0, fmt.Errorf("repo.FindByLastAccessed() > %w", err)
	}

	var freed int64
	for i := range packs {
		if freed >= targetBytes {
			break
		}
		p := &packs[i]
		if a.guard != nil && a.guard.Held(p.ChapterID) {
			continue
		}
		if err := a.repo.Delete(ctx, p.ChapterID); err != nil {
			return freed, fmt.Errorf("repo.Delete(%s) > %w", p.ChapterID, err)
		}
		freed += p.SizeBytes
		slog.Default().Info("evicted lesson pack",
			slog.String("chapterId", p.ChapterID),
			slog.Int64("sizeBytes", p.SizeBytes),
			slog.Int64("freedBytes", freed),
		)
	}
	return freed, nil
}

// EnsureSpace makes room for requiredBytes, evicting LRU packs to cover any
// shortfall. It reports whether the shortfall was fully covered.
func (a *Accountant) EnsureSpace(ctx context.Context, requiredBytes int64) (bool, error) {
	info, err := a.Info(ctx)
	if err != nil {
		return false, err
	}
	if info.AvailableBytes >= requiredBytes {
		return true, nil
	}
	shortfall := requiredBytes - info.AvailableBytes
	freed, err := a.EvictLRU(ctx, shortfall)
	if err != nil {
		return false, fmt.Errorf("EvictLRU() > %w", err)
	}
	return freed >= shortfall, nil
}

// ParseBytes parses a human-readable byte count such as "512", "10MB" or
// "1.5 GB" into bytes, using the same base-1024 units FormatBytes renders.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte count")
	}

	multipliers := map[string]int64{
		"":   1,
		"B":  1,
		"KB": 1024,
		"MB": 1024 * 1024,
		"GB": 1024 * 1024 * 1024,
	}
	number := s
	unit := ""
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			number = s[:i]
			unit = strings.ToUpper(strings.TrimSpace(s[i:]))
			break
		}
	}
	multiplier, ok := multipliers[unit]
	if !ok {
		return 0, fmt.Errorf("unknown byte unit %q", unit)
	}
	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte count %q: %w", s, err)
	}
	return int64(value * float64(multiplier)), nil
}

// FormatBytes renders a byte count in base-1024 units with one decimal
// place. A trailing ".0" is suppressed and zero renders as "0 B" exactly.
func FormatBytes(n int64) string {
	if n == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	value := float64(n)
	i := 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	s := strconv.FormatFloat(value, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s + " " + units[i]
}
