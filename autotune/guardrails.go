package autotune

import (
	"strconv"

	"github.com/ivan-motion/core/replay"
)

// GuardrailCheck is one named pass/fail condition inside an
// EvaluateGuardrails result.
type GuardrailCheck struct {
	Name   string  `json:"name"`
	Passed bool    `json:"passed"`
	Detail string  `json:"detail"`
}

// GuardrailResult is the output of EvaluateGuardrails: spec.md §4.H.6's
// {route_tag, passed, score, improved_count, regressed_count,
// equal_count, checks[]}.
type GuardrailResult struct {
	RouteTag       string           `json:"route_tag"`
	Passed         bool             `json:"passed"`
	Score          float64          `json:"score"`
	ImprovedCount  int              `json:"improved_count"`
	RegressedCount int              `json:"regressed_count"`
	EqualCount     int              `json:"equal_count"`
	Checks         []GuardrailCheck `json:"checks"`
}

// jumpSuccessEpsilon bounds how much the jump takeoff success rate may
// regress before the corresponding check fails.
const jumpSuccessEpsilon = 0.05

// landingLossEpsilon bounds how much landing speed loss may worsen.
const landingLossEpsilon = 0.10

// maxFlickerPerMin is the absolute ceiling on ground-contact flicker
// regardless of the reference run's own value.
const maxFlickerPerMin = 12.0

// cameraJerkSlack allows camera jerk metrics to worsen by up to this
// fraction of the reference value before failing.
const cameraJerkSlack = 0.10

// EvaluateGuardrails scores latest against reference using
// replay.CompareSummaries and a fixed five-check set: jump success not
// regressed beyond epsilon, horizontal speed not regressed, landing
// loss not worsened beyond epsilon, ground flicker under the absolute
// ceiling, camera jerk not worsened beyond its slack. passed requires
// every check to pass.
func EvaluateGuardrails(routeTag string, latest, reference replay.Summary, createdAtUnix float64) GuardrailResult {
	cmp := replay.CompareSummaries(latest, reference, routeTag, createdAtUnix)

	checks := []GuardrailCheck{
		checkNotRegressedBy("jump_success_not_regressed", cmp, "jump_takeoff_success_rate", jumpSuccessEpsilon),
		checkNotRegressedBy("speed_not_regressed", cmp, "horizontal_speed_avg", jumpSuccessEpsilon),
		checkNotWorsenedBy("landing_loss_not_worsened", cmp, "landing_speed_loss_avg", landingLossEpsilon),
		checkBelowCeiling("ground_flicker_below_ceiling", cmp, "ground_flicker_per_min", maxFlickerPerMin),
		checkCameraJerkNotWorsened(cmp),
	}

	passed := true
	for _, c := range checks {
		if !c.Passed {
			passed = false
			break
		}
	}

	total := cmp.ImprovedCount + cmp.RegressedCount + cmp.EqualCount
	score := 0.0
	if total > 0 {
		score = float64(cmp.ImprovedCount-cmp.RegressedCount) / float64(total)
	}

	return GuardrailResult{
		RouteTag:       routeTag,
		Passed:         passed,
		Score:          score,
		ImprovedCount:  cmp.ImprovedCount,
		RegressedCount: cmp.RegressedCount,
		EqualCount:     cmp.EqualCount,
		Checks:         checks,
	}
}

func checkNotRegressedBy(name string, cmp replay.Comparison, metric string, epsilon float64) GuardrailCheck {
	row, ok := cmp.Metrics[metric]
	if !ok {
		return GuardrailCheck{Name: name, Passed: true, Detail: metric + ": missing, skipped"}
	}
	// "higher is better" metric regresses when latest falls epsilon (as
	// a fraction of reference) below reference.
	floor := row.Reference * (1 - epsilon)
	passed := row.Latest >= floor
	return GuardrailCheck{Name: name, Passed: passed, Detail: formatCheckDetail(metric, row.Latest, row.Reference)}
}

func checkNotWorsenedBy(name string, cmp replay.Comparison, metric string, epsilon float64) GuardrailCheck {
	row, ok := cmp.Metrics[metric]
	if !ok {
		return GuardrailCheck{Name: name, Passed: true, Detail: metric + ": missing, skipped"}
	}
	// "lower is better" metric worsens when latest rises epsilon (as a
	// fraction of reference) above reference.
	ceiling := row.Reference * (1 + epsilon)
	passed := row.Latest <= ceiling
	return GuardrailCheck{Name: name, Passed: passed, Detail: formatCheckDetail(metric, row.Latest, row.Reference)}
}

func checkBelowCeiling(name string, cmp replay.Comparison, metric string, ceiling float64) GuardrailCheck {
	row, ok := cmp.Metrics[metric]
	if !ok {
		return GuardrailCheck{Name: name, Passed: true, Detail: metric + ": missing, skipped"}
	}
	passed := row.Latest <= ceiling
	return GuardrailCheck{Name: name, Passed: passed, Detail: formatCheckDetail(metric, row.Latest, ceiling)}
}

func checkCameraJerkNotWorsened(cmp replay.Comparison) GuardrailCheck {
	lin := cmp.Metrics["camera_lin_jerk_avg"]
	ang := cmp.Metrics["camera_ang_jerk_avg"]
	linPassed := lin.Latest <= lin.Reference*(1+cameraJerkSlack)
	angPassed := ang.Latest <= ang.Reference*(1+cameraJerkSlack)
	return GuardrailCheck{
		Name:   "camera_jerk_not_worsened",
		Passed: linPassed && angPassed,
		Detail: formatCheckDetail("camera_lin_jerk_avg", lin.Latest, lin.Reference) + ", " + formatCheckDetail("camera_ang_jerk_avg", ang.Latest, ang.Reference),
	}
}

func formatCheckDetail(metric string, latest, reference float64) string {
	return metric + ": latest=" + strconv.FormatFloat(latest, 'f', 4, 64) + " reference=" + strconv.FormatFloat(reference, 'f', 4, 64)
}
