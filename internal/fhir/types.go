// Package fhir builds FHIR R4 collection bundles from consultation
// artifacts. Only the resource subset the pipeline emits is modelled;
// unused fields are omitted rather than stubbed.
package fhir

// Bundle is a FHIR collection bundle
type Bundle struct {
	ResourceType string  `json:"resourceType"`
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Timestamp    string  `json:"timestamp"`
	Entry        []Entry `json:"entry"`
}

// Entry wraps one resource in a bundle
type Entry struct {
	Resource interface{} `json:"resource"`
}

// Identifier is a business identifier such as an NHI number
type Identifier struct {
	Use    string `json:"use,omitempty"`
	System string `json:"system,omitempty"`
	Value  string `json:"value"`
}

// Reference points at another resource in the bundle
type Reference struct {
	Reference string `json:"reference"`
}

// Coding is one code from a code system
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code"`
	Display string `json:"display,omitempty"`
}

// CodeableConcept is a coded or free-text concept
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Period is a start/end time range
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Patient is a minimal FHIR patient carrying the de-identified NHI-style id
type Patient struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id"`
	Identifier   []Identifier `json:"identifier,omitempty"`
}

// Encounter is the consultation encounter
type Encounter struct {
	ResourceType string    `json:"resourceType"`
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	Class        Coding    `json:"class"`
	Subject      Reference `json:"subject"`
	Period       *Period   `json:"period,omitempty"`
}

// Condition records a working diagnosis
type Condition struct {
	ResourceType   string           `json:"resourceType"`
	ID             string           `json:"id"`
	ClinicalStatus *CodeableConcept `json:"clinicalStatus,omitempty"`
	Code           CodeableConcept  `json:"code"`
	Subject        Reference        `json:"subject"`
	Encounter      *Reference       `json:"encounter,omitempty"`
}

// Dosage is free-text dosage instructions
type Dosage struct {
	Text string `json:"text,omitempty"`
}

// MedicationRequest records one prescribed medication
type MedicationRequest struct {
	ResourceType              string          `json:"resourceType"`
	ID                        string          `json:"id"`
	Status                    string          `json:"status"`
	Intent                    string          `json:"intent"`
	MedicationCodeableConcept CodeableConcept `json:"medicationCodeableConcept"`
	Subject                   Reference       `json:"subject"`
	Encounter                 *Reference      `json:"encounter,omitempty"`
	DosageInstruction         []Dosage        `json:"dosageInstruction,omitempty"`
}

// Observation records one vital sign reading as spoken
type Observation struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Category     []CodeableConcept `json:"category,omitempty"`
	Code         CodeableConcept   `json:"code"`
	Subject      Reference         `json:"subject"`
	Encounter    *Reference        `json:"encounter,omitempty"`
	ValueString  string            `json:"valueString,omitempty"`
}

// ServiceRequest records one follow-up task as an actionable order
type ServiceRequest struct {
	ResourceType string          `json:"resourceType"`
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Intent       string          `json:"intent"`
	Priority     string          `json:"priority,omitempty"`
	Code         CodeableConcept `json:"code"`
	Subject      Reference       `json:"subject"`
	Encounter    *Reference      `json:"encounter,omitempty"`
}

// Attachment carries inline document content
type Attachment struct {
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
}

// Content wraps an attachment in a document reference
type Content struct {
	Attachment Attachment `json:"attachment"`
}

// DocumentContext links a document to its encounter
type DocumentContext struct {
	Encounter []Reference `json:"encounter,omitempty"`
}

// DocumentReference carries the consultation transcript
type DocumentReference struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id"`
	Status       string           `json:"status"`
	Subject      Reference        `json:"subject"`
	Context      *DocumentContext `json:"context,omitempty"`
	Content      []Content        `json:"content"`
}
