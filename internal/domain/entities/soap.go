package entities

// SOAPNotes is the nested clinical narrative in SOAP order
type SOAPNotes struct {
	Subjective Subjective `json:"subjective"`
	Objective  Objective  `json:"objective"`
	Assessment Assessment `json:"assessment"`
	Plan       Plan       `json:"plan"`
}

// Subjective captures the patient-reported side of the consultation
type Subjective struct {
	ChiefComplaint               *string             `json:"chief_complaint"`
	HistoryOfPresentingComplaint *string             `json:"history_of_presenting_complaint"`
	Symptoms                     []Symptom           `json:"symptoms"`
	PastMedicalHistory           []string            `json:"past_medical_history"`
	CurrentMedications           []CurrentMedication `json:"current_medications"`
	Allergies                    []Allergy           `json:"allergies"`
	SocialHistory                *SocialHistory      `json:"social_history"`
	FamilyHistory                []string            `json:"family_history"`
	FunctionalStatus             *FunctionalStatus   `json:"functional_status"`
	ReviewOfSystems              map[string]string   `json:"review_of_systems"`
}

// Symptom is one reported symptom. TranscriptEvidence must be a literal
// substring of the source transcript; the pipeline does not verify the match
// but downstream audit consumers rely on its presence.
type Symptom struct {
	Symptom            string   `json:"symptom"`
	Onset              *string  `json:"onset"`
	Duration           *string  `json:"duration"`
	Severity           *string  `json:"severity"`
	Characteristics    *string  `json:"characteristics"`
	AggravatingFactors []string `json:"aggravating_factors"`
	RelievingFactors   []string `json:"relieving_factors"`
	AssociatedSymptoms []string `json:"associated_symptoms"`
	TranscriptEvidence *string  `json:"transcript_evidence"`
}

// CurrentMedication is a medication the patient is already taking
type CurrentMedication struct {
	Medication string  `json:"medication"`
	Dose       *string `json:"dose"`
	Frequency  *string `json:"frequency"`
	Indication *string `json:"indication"`
}

// Allergy is one reported allergy
type Allergy struct {
	Allergen string  `json:"allergen"`
	Reaction *string `json:"reaction"`
	Severity *string `json:"severity"`
}

// SocialHistory holds lifestyle and living context
type SocialHistory struct {
	Smoking          *string `json:"smoking"`
	Alcohol          *string `json:"alcohol"`
	RecreationalDrug *string `json:"recreational_drugs"`
	Occupation       *string `json:"occupation"`
	LivingSituation  *string `json:"living_situation"`
	SupportNetwork   *string `json:"support_network"`
}

// FunctionalStatus holds mobility and cognition context
type FunctionalStatus struct {
	Mobility        *string `json:"mobility"`
	ADLs            *string `json:"adls"`
	CognitiveStatus *string `json:"cognitive_status"`
}

// Objective captures findings, observations and results
type Objective struct {
	VitalSigns          *VitalSigns          `json:"vital_signs"`
	PhysicalExamination []ExaminationFinding `json:"physical_examination"`
	Investigations      []Investigation      `json:"investigations"`
	ImagingResults      []ImagingResult      `json:"imaging_results"`
	LinesAndDevices     []LineOrDevice       `json:"lines_and_devices"`
	FluidBalance        *FluidBalance        `json:"fluid_balance"`
}

// VitalSigns holds the vital sign readings mentioned in the consultation.
// Values are preserved verbatim as spoken, not parsed into units.
type VitalSigns struct {
	BloodPressure    *string `json:"blood_pressure"`
	HeartRate        *string `json:"heart_rate"`
	RespiratoryRate  *string `json:"respiratory_rate"`
	Temperature      *string `json:"temperature"`
	OxygenSaturation *string `json:"oxygen_saturation"`
	Weight           *string `json:"weight"`
	Height           *string `json:"height"`
	BMI              *string `json:"bmi"`
	PainScore        *string `json:"pain_score"`
	GCS              *string `json:"gcs"`
	AVPU             *string `json:"avpu"`
	Timestamp        *string `json:"timestamp"`
}

// VitalReading is one named, non-null vital sign value
type VitalReading struct {
	Name  string
	Value string
}

// Readings returns the non-null vital signs in a fixed order
func (v *VitalSigns) Readings() []VitalReading {
	if v == nil {
		return nil
	}
	named := []struct {
		name  string
		value *string
	}{
		{"blood_pressure", v.BloodPressure},
		{"heart_rate", v.HeartRate},
		{"respiratory_rate", v.RespiratoryRate},
		{"temperature", v.Temperature},
		{"oxygen_saturation", v.OxygenSaturation},
		{"weight", v.Weight},
		{"height", v.Height},
		{"bmi", v.BMI},
		{"pain_score", v.PainScore},
		{"gcs", v.GCS},
		{"avpu", v.AVPU},
	}
	var readings []VitalReading
	for _, n := range named {
		if n.value != nil && *n.value != "" {
			readings = append(readings, VitalReading{Name: n.name, Value: *n.value})
		}
	}
	return readings
}

// ExaminationFinding is one body-system examination result
type ExaminationFinding struct {
	System        string   `json:"system"`
	Findings      *string  `json:"findings"`
	Abnormalities []string `json:"abnormalities"`
}

// Investigation is one completed or pending test result
type Investigation struct {
	TestType       *string `json:"test_type"`
	TestName       string  `json:"test_name"`
	Result         *string `json:"result"`
	Date           *string `json:"date"`
	Interpretation *string `json:"interpretation"`
	ReferenceRange *string `json:"reference_range"`
}

// ImagingResult is one imaging study result
type ImagingResult struct {
	Modality *string `json:"modality"`
	BodyPart *string `json:"body_part"`
	Findings *string `json:"findings"`
	Date     *string `json:"date"`
}

// LineOrDevice is one in-situ line, drain or device
type LineOrDevice struct {
	DeviceType   string  `json:"device_type"`
	Location     *string `json:"location"`
	InsertedDate *string `json:"inserted_date"`
	Functioning  *bool   `json:"functioning"`
}

// FluidBalance holds 24-hour fluid input/output
type FluidBalance struct {
	Input24h  *string `json:"input_24h"`
	Output24h *string `json:"output_24h"`
	Balance   *string `json:"balance"`
}

// Assessment captures diagnosis and clinical reasoning
type Assessment struct {
	PrimaryDiagnosis      *string                 `json:"primary_diagnosis"`
	DifferentialDiagnoses []DifferentialDiagnosis `json:"differential_diagnoses"`
	ProblemList           []Problem               `json:"problem_list"`
	ClinicalImpression    *string                 `json:"clinical_impression"`
	SeverityAssessment    *string                 `json:"severity_assessment"`
	Prognosis             *string                 `json:"prognosis"`
}

// DifferentialDiagnosis is one alternative diagnosis under consideration
type DifferentialDiagnosis struct {
	Diagnosis  string  `json:"diagnosis"`
	Likelihood *string `json:"likelihood"`
	Reasoning  *string `json:"reasoning"`
}

// Problem is one entry in the problem list
type Problem struct {
	Problem   string  `json:"problem"`
	Status    *string `json:"status"`
	Priority  *int    `json:"priority"`
	OnsetDate *string `json:"onset_date"`
}

// Plan captures the agreed management plan
type Plan struct {
	TreatmentPlan         *string                `json:"treatment_plan"`
	MedicationsPrescribed []PrescribedMedication `json:"medications_prescribed"`
	InvestigationsOrdered []OrderedInvestigation `json:"investigations_ordered"`
	Referrals             []Referral             `json:"referrals"`
	PatientEducation      []string               `json:"patient_education"`
	FollowUp              *FollowUp              `json:"follow_up"`
	SafetyNetting         []string               `json:"safety_netting"`
	EscalationCriteria    []string               `json:"escalation_criteria"`
	DischargePlanning     *DischargePlanning     `json:"discharge_planning"`
}

// PrescribedMedication is one medication prescribed during the consultation
type PrescribedMedication struct {
	Medication          string  `json:"medication"`
	Dose                *string `json:"dose"`
	Route               *string `json:"route"`
	Frequency           *string `json:"frequency"`
	Duration            *string `json:"duration"`
	Indication          *string `json:"indication"`
	SpecialInstructions *string `json:"special_instructions"`
}

// OrderedInvestigation is one test ordered in the plan
type OrderedInvestigation struct {
	TestType   *string `json:"test_type"`
	TestName   string  `json:"test_name"`
	Urgency    *string `json:"urgency"`
	Indication *string `json:"indication"`
}

// Referral is one referral made in the plan
type Referral struct {
	Specialty string  `json:"specialty"`
	Urgency   *string `json:"urgency"`
	Reason    *string `json:"reason"`
}

// FollowUp describes the agreed follow-up arrangement
type FollowUp struct {
	Required  bool    `json:"required"`
	Timeframe *string `json:"timeframe"`
	Reason    *string `json:"reason"`
	WithWhom  *string `json:"with_whom"`
}

// DischargePlanning holds discharge readiness and logistics
type DischargePlanning struct {
	ReadyForDischarge      *bool    `json:"ready_for_discharge"`
	EstimatedDischargeDate *string  `json:"estimated_discharge_date"`
	EstimatedDischargeTime *string  `json:"estimated_discharge_time"`
	DischargeDestination   *string  `json:"discharge_destination"`
	DischargeCriteria      []string `json:"discharge_criteria"`
	DischargeMedications   []string `json:"discharge_medications"`
	DischargeEquipment     []string `json:"discharge_equipment"`
	HomeServicesRequired   []string `json:"home_services_required"`
	FollowUpAppointments   []string `json:"follow_up_appointments"`
}
