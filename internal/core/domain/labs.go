package domain

// LabParameter names one of the fixed numeric fields extracted from a report.
type LabParameter string

// The closed set of lab parameters.
const (
	BloodSugarFasting      LabParameter = "blood_sugar_fasting"
	BloodSugarPP           LabParameter = "blood_sugar_pp"
	BloodPressureSystolic  LabParameter = "blood_pressure_systolic"
	BloodPressureDiastolic LabParameter = "blood_pressure_diastolic"
	Hemoglobin             LabParameter = "hemoglobin"
	RBC                    LabParameter = "rbc"
	WBC                    LabParameter = "wbc"
	Platelets              LabParameter = "platelets"
	CholesterolTotal       LabParameter = "cholesterol_total"
	HDL                    LabParameter = "hdl"
	LDL                    LabParameter = "ldl"
	Triglycerides          LabParameter = "triglycerides"
	Creatinine             LabParameter = "creatinine"
	SGOT                   LabParameter = "sgot"
	SGPT                   LabParameter = "sgpt"
	TSH                    LabParameter = "tsh"
)

// AdditionalNotesKey is the free-text field stored alongside the lab parameters.
const AdditionalNotesKey = "additional_notes"

// AllLabParameters returns the lab parameters in canonical order.
func AllLabParameters() []LabParameter {
	return []LabParameter{
		BloodSugarFasting,
		BloodSugarPP,
		BloodPressureSystolic,
		BloodPressureDiastolic,
		Hemoglobin,
		RBC,
		WBC,
		Platelets,
		CholesterolTotal,
		HDL,
		LDL,
		Triglycerides,
		Creatinine,
		SGOT,
		SGPT,
		TSH,
	}
}

// IsValid returns true if the parameter belongs to the closed set.
func (p LabParameter) IsValid() bool {
	_, ok := labInfo[p]
	return ok
}

// String returns the string representation.
func (p LabParameter) String() string {
	return string(p)
}

// Label returns a human-readable name.
func (p LabParameter) Label() string {
	if info, ok := labInfo[p]; ok {
		return info.label
	}
	return unknownDescription
}

// Unit returns the canonical unit the extractor is asked to convert into.
func (p LabParameter) Unit() string {
	return labInfo[p].unit
}

// NormalRange returns the reference interval for the parameter.
func (p LabParameter) NormalRange() NormalRange {
	return labInfo[p].normal
}

const unknownDescription = "Unknown"

type labMeta struct {
	label  string
	unit   string
	normal NormalRange
}

var labInfo = map[LabParameter]labMeta{
	BloodSugarFasting:      {"Blood Sugar (Fasting)", "mg/dL", NormalRange{Low: 70, High: 100}},
	BloodSugarPP:           {"Blood Sugar (Post Prandial)", "mg/dL", NormalRange{Low: 100, High: 140}},
	BloodPressureSystolic:  {"Blood Pressure (Systolic)", "mmHg", NormalRange{Low: 90, High: 120}},
	BloodPressureDiastolic: {"Blood Pressure (Diastolic)", "mmHg", NormalRange{Low: 60, High: 80}},
	Hemoglobin:             {"Hemoglobin", "g/dL", NormalRange{Low: 13.5, High: 17.5}},
	RBC:                    {"RBC", "million/uL", NormalRange{Low: 4.5, High: 5.9}},
	WBC:                    {"WBC", "cells/uL", NormalRange{Low: 4000, High: 11000}},
	Platelets:              {"Platelets", "cells/uL", NormalRange{Low: 150000, High: 450000}},
	CholesterolTotal:       {"Total Cholesterol", "mg/dL", NormalRange{Low: 125, High: 200}},
	HDL:                    {"HDL", "mg/dL", NormalRange{Low: 40, High: 60}},
	LDL:                    {"LDL", "mg/dL", NormalRange{Low: 0, High: 100}},
	Triglycerides:          {"Triglycerides", "mg/dL", NormalRange{Low: 0, High: 150}},
	Creatinine:             {"Creatinine", "mg/dL", NormalRange{Low: 0.6, High: 1.3}},
	SGOT:                   {"SGOT (AST)", "U/L", NormalRange{Low: 0, High: 40}},
	SGPT:                   {"SGPT (ALT)", "U/L", NormalRange{Low: 0, High: 40}},
	TSH:                    {"TSH", "mIU/L", NormalRange{Low: 0.4, High: 4.0}},
}

// RangeStatus classifies a value against its normal range.
type RangeStatus string

// Range classifications.
const (
	RangeLow     RangeStatus = "low"
	RangeNormal  RangeStatus = "normal"
	RangeHigh    RangeStatus = "high"
	RangeUnknown RangeStatus = "unknown"
)

// NormalRange is an inclusive reference interval.
type NormalRange struct {
	Low  float64
	High float64
}

// Classify reports where v falls relative to the range.
func (r NormalRange) Classify(v float64) RangeStatus {
	switch {
	case v < r.Low:
		return RangeLow
	case v > r.High:
		return RangeHigh
	default:
		return RangeNormal
	}
}

// ParsedData is the structured record produced by the structured extractor.
// A nil field means the value was not clearly present in the report.
type ParsedData struct {
	BloodSugarFasting      *float64 `json:"blood_sugar_fasting" bson:"blood_sugar_fasting"`
	BloodSugarPP           *float64 `json:"blood_sugar_pp" bson:"blood_sugar_pp"`
	BloodPressureSystolic  *float64 `json:"blood_pressure_systolic" bson:"blood_pressure_systolic"`
	BloodPressureDiastolic *float64 `json:"blood_pressure_diastolic" bson:"blood_pressure_diastolic"`
	Hemoglobin             *float64 `json:"hemoglobin" bson:"hemoglobin"`
	RBC                    *float64 `json:"rbc" bson:"rbc"`
	WBC                    *float64 `json:"wbc" bson:"wbc"`
	Platelets              *float64 `json:"platelets" bson:"platelets"`
	CholesterolTotal       *float64 `json:"cholesterol_total" bson:"cholesterol_total"`
	HDL                    *float64 `json:"hdl" bson:"hdl"`
	LDL                    *float64 `json:"ldl" bson:"ldl"`
	Triglycerides          *float64 `json:"triglycerides" bson:"triglycerides"`
	Creatinine             *float64 `json:"creatinine" bson:"creatinine"`
	SGOT                   *float64 `json:"sgot" bson:"sgot"`
	SGPT                   *float64 `json:"sgpt" bson:"sgpt"`
	TSH                    *float64 `json:"tsh" bson:"tsh"`
	AdditionalNotes        *string  `json:"additional_notes" bson:"additional_notes"`
}

// Value returns the value for a parameter, or nil when absent or unknown.
func (d *ParsedData) Value(p LabParameter) *float64 {
	if d == nil {
		return nil
	}
	if f := d.field(p); f != nil {
		return *f
	}
	return nil
}

// Set assigns a parameter value. Returns false for parameters outside the closed set.
func (d *ParsedData) Set(p LabParameter, v *float64) bool {
	f := d.field(p)
	if f == nil {
		return false
	}
	*f = v
	return true
}

// Notes returns the additional notes or an empty string.
func (d *ParsedData) Notes() string {
	if d == nil || d.AdditionalNotes == nil {
		return ""
	}
	return *d.AdditionalNotes
}

// Present returns the parameters that carry a value, in canonical order.
func (d *ParsedData) Present() []LabParameter {
	var out []LabParameter
	for _, p := range AllLabParameters() {
		if d.Value(p) != nil {
			out = append(out, p)
		}
	}
	return out
}

//nolint:gocyclo // One case per parameter.
func (d *ParsedData) field(p LabParameter) **float64 {
	switch p {
	case BloodSugarFasting:
		return &d.BloodSugarFasting
	case BloodSugarPP:
		return &d.BloodSugarPP
	case BloodPressureSystolic:
		return &d.BloodPressureSystolic
	case BloodPressureDiastolic:
		return &d.BloodPressureDiastolic
	case Hemoglobin:
		return &d.Hemoglobin
	case RBC:
		return &d.RBC
	case WBC:
		return &d.WBC
	case Platelets:
		return &d.Platelets
	case CholesterolTotal:
		return &d.CholesterolTotal
	case HDL:
		return &d.HDL
	case LDL:
		return &d.LDL
	case Triglycerides:
		return &d.Triglycerides
	case Creatinine:
		return &d.Creatinine
	case SGOT:
		return &d.SGOT
	case SGPT:
		return &d.SGPT
	case TSH:
		return &d.TSH
	default:
		return nil
	}
}
