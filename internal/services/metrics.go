package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/provenor/evaluation-service/internal/models"
)

// MetricsStore abstracts the fleet-wide reads the aggregator performs.
type MetricsStore interface {
	ListVendors(ctx context.Context) ([]models.Vendor, error)
	ListEvaluationIDs(ctx context.Context) ([]string, error)
	ListAssignments(ctx context.Context) ([]models.VendorAssignment, error)
}

// VendorMetrics is one vendor's fleet-wide rollup. Compliance is the mean of
// the vendor's per-evaluation compliance samples; it is only meaningful when
// ScoredEvaluations > 0 (an assigned-but-silent vendor is pending, not
// failing).
type VendorMetrics struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Compliance           int    `json:"compliance"`
	ScoredEvaluations    int    `json:"scored_evaluations"`
	Evaluations          int    `json:"evaluations"`
	CompletedEvaluations int    `json:"completed_evaluations"`
	PendingEvaluations   int    `json:"pending_evaluations"`
}

// ComplianceDistribution buckets vendors by mean compliance.
type ComplianceDistribution struct {
	Excellent int `json:"excellent"` // >= 90
	Good      int `json:"good"`      // [70, 90)
	Regular   int `json:"regular"`   // [50, 70)
	Poor      int `json:"poor"`      // < 50
}

// FleetMetrics is the admin-facing rollup across all evaluations.
type FleetMetrics struct {
	VendorData             []VendorMetrics        `json:"vendor_data"`
	ComplianceDistribution ComplianceDistribution `json:"compliance_distribution"`
	TopPerformers          []VendorMetrics        `json:"top_performers"`
	GlobalCompletionRate   int                    `json:"global_completion_rate"`
}

// MetricsService composes the scoring service across every evaluation.
type MetricsService struct {
	store   MetricsStore
	scoring *ScoringService
}

func NewMetricsService(store MetricsStore, scoring *ScoringService) *MetricsService {
	return &MetricsService{store: store, scoring: scoring}
}

// ComputeFleetMetrics accumulates one compliance sample per (vendor,
// evaluation) pair and reports each vendor's mean across samples — each
// evaluation contributes one sample regardless of its question count.
func (s *MetricsService) ComputeFleetMetrics(ctx context.Context) (*FleetMetrics, error) {
	vendors, err := s.store.ListVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vendors: %w", err)
	}
	evaluationIDs, err := s.store.ListEvaluationIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load evaluations: %w", err)
	}
	assignments, err := s.store.ListAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}

	samples := map[string][]int{}
	for _, evaluationID := range evaluationIDs {
		scores, err := s.scoring.ComputeCompliance(ctx, evaluationID)
		if err != nil {
			return nil, fmt.Errorf("score evaluation %s: %w", evaluationID, err)
		}
		for _, vc := range scores {
			samples[vc.VendorID] = append(samples[vc.VendorID], vc.ScorePct)
		}
	}

	assigned, completed := 0, 0
	assignedByVendor := map[string]int{}
	completedByVendor := map[string]int{}
	for _, a := range assignments {
		assigned++
		assignedByVendor[a.VendorID]++
		if a.Status == models.AssignmentCompleted {
			completed++
			completedByVendor[a.VendorID]++
		}
	}

	metrics := &FleetMetrics{VendorData: make([]VendorMetrics, 0, len(vendors))}
	for _, v := range vendors {
		vm := VendorMetrics{
			ID:                   v.ID,
			Name:                 v.Name,
			Evaluations:          assignedByVendor[v.ID],
			CompletedEvaluations: completedByVendor[v.ID],
			PendingEvaluations:   assignedByVendor[v.ID] - completedByVendor[v.ID],
		}
		if vs := samples[v.ID]; len(vs) > 0 {
			vm.ScoredEvaluations = len(vs)
			vm.Compliance = meanPct(vs)
			switch {
			case vm.Compliance >= 90:
				metrics.ComplianceDistribution.Excellent++
			case vm.Compliance >= 70:
				metrics.ComplianceDistribution.Good++
			case vm.Compliance >= 50:
				metrics.ComplianceDistribution.Regular++
			default:
				metrics.ComplianceDistribution.Poor++
			}
		}
		metrics.VendorData = append(metrics.VendorData, vm)
	}

	for _, vm := range metrics.VendorData {
		if vm.ScoredEvaluations > 0 && vm.Compliance >= 90 {
			metrics.TopPerformers = append(metrics.TopPerformers, vm)
		}
	}
	sort.Slice(metrics.TopPerformers, func(i, j int) bool {
		if metrics.TopPerformers[i].Compliance != metrics.TopPerformers[j].Compliance {
			return metrics.TopPerformers[i].Compliance > metrics.TopPerformers[j].Compliance
		}
		return metrics.TopPerformers[i].ID < metrics.TopPerformers[j].ID
	})
	if len(metrics.TopPerformers) > 5 {
		metrics.TopPerformers = metrics.TopPerformers[:5]
	}

	if assigned > 0 {
		metrics.GlobalCompletionRate = int(math.Round(100 * float64(completed) / float64(assigned)))
	}
	return metrics, nil
}

func meanPct(samples []int) int {
	sum := 0
	for _, s := range samples {
		sum += s
	}
	return int(math.Round(float64(sum) / float64(len(samples))))
}
