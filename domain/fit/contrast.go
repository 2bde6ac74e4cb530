package fit

import "dosefit/domain/dose"

// Contrast is a difference between the same-named parameter of two
// conditions, with the inference derived from the joint fit covariance.
// Derived and read-only; computed on demand from a Model.
type Contrast struct {
	Parameter        ParamName      `json:"parameter"`
	ConditionA       dose.Condition `json:"condition_a"`
	ConditionB       dose.Condition `json:"condition_b"`
	Estimate         float64        `json:"estimate"`
	StdError         float64        `json:"std_error"`
	Statistic        float64        `json:"statistic"`
	PValue           float64        `json:"p_value"`
	DegreesOfFreedom int            `json:"degrees_of_freedom"`
}

// Significant reports whether the contrast rejects at the given alpha.
func (c Contrast) Significant(alpha float64) bool {
	return c.PValue < alpha
}
