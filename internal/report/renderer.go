// Package report renders consultation artifacts into printable PDF notes.
// Rendering is pure templating over the artifact, no model calls: the same
// artifact always yields the same document apart from the generation stamp.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
)

// FacilityInfo is the optional letterhead shown above the notes
type FacilityInfo struct {
	Name    string
	Address string
	Phone   string
}

// Renderer produces consultation-note PDFs
type Renderer struct {
	facility *FacilityInfo
	now      func() time.Time
}

// NewRenderer creates a PDF renderer. facility may be nil.
func NewRenderer(facility *FacilityInfo) *Renderer {
	return &Renderer{facility: facility, now: time.Now}
}

// Render produces the PDF document for one consultation artifact. Sections
// whose artifact fields are absent are skipped entirely.
func (r *Renderer) Render(artifact *entities.ConsultationArtifact) ([]byte, error) {
	doc := newDocument()
	doc.pdf.SetCreationDate(r.now())
	doc.pdf.SetModificationDate(r.now())
	doc.pdf.AddPage()

	r.renderHeader(doc)
	r.renderMetadata(doc, artifact)
	r.renderRedFlags(doc, &artifact.ClinicalSafety)
	r.renderSubjective(doc, &artifact.SOAPNotes.Subjective)
	r.renderObjective(doc, &artifact.SOAPNotes.Objective)
	r.renderAssessment(doc, &artifact.SOAPNotes.Assessment)
	r.renderPlan(doc, &artifact.SOAPNotes.Plan)
	r.renderTasks(doc, artifact.FollowUpTasks)
	r.renderHandover(doc, &artifact.Handover)
	r.renderFooter(doc)

	var buf bytes.Buffer
	if err := doc.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderHeader(doc *document) {
	if r.facility != nil {
		doc.pdf.SetFont("Helvetica", "B", 10)
		doc.pdf.CellFormat(0, 5, r.facility.Name, "", 1, "L", false, 0, "")
		doc.pdf.SetFont("Helvetica", "", 10)
		if r.facility.Address != "" {
			doc.pdf.CellFormat(0, 5, r.facility.Address, "", 1, "L", false, 0, "")
		}
		if r.facility.Phone != "" {
			doc.pdf.CellFormat(0, 5, "Ph: "+r.facility.Phone, "", 1, "L", false, 0, "")
		}
		doc.pdf.Ln(4)
	}

	doc.pdf.SetFont("Helvetica", "B", 18)
	doc.pdf.SetTextColor(26, 84, 144)
	doc.pdf.CellFormat(0, 10, "CONSULTATION NOTES", "", 1, "C", false, 0, "")
	doc.pdf.SetTextColor(0, 0, 0)
	doc.pdf.Ln(2)
}

func (r *Renderer) renderMetadata(doc *document, artifact *entities.ConsultationArtifact) {
	meta := &artifact.Metadata
	rows := [][2]string{
		{"Date:", metaDate(meta.Timestamp)},
		{"Setting:", titleOrNA(meta.SettingType)},
		{"Encounter:", titleOrNA(meta.EncounterType)},
		{"Specialty:", titleOrNA(meta.Specialty)},
	}
	if v := artifact.PatientContext.AgeRange; v != nil && *v != "" {
		rows = append(rows, [2]string{"Patient Age:", *v})
	}
	if d := artifact.PatientContext.HospitalDay; d != nil {
		rows = append(rows, [2]string{"Hospital Day:", fmt.Sprintf("%d", *d)})
	}

	doc.pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		doc.pdf.SetFont("Helvetica", "B", 9)
		doc.pdf.SetFillColor(240, 240, 240)
		doc.pdf.CellFormat(40, 6, row[0], "1", 0, "L", true, 0, "")
		doc.pdf.SetFont("Helvetica", "", 9)
		doc.pdf.CellFormat(100, 6, row[1], "1", 1, "L", false, 0, "")
	}
	doc.pdf.Ln(4)
}

func (r *Renderer) renderRedFlags(doc *document, safety *entities.ClinicalSafety) {
	if len(safety.RedFlags) == 0 {
		return
	}
	doc.pdf.SetFont("Helvetica", "B", 10)
	doc.pdf.SetTextColor(200, 0, 0)
	doc.pdf.CellFormat(0, 6, "RED FLAGS / ALERTS", "", 1, "L", false, 0, "")
	for _, flag := range safety.RedFlags {
		action := "No action documented"
		if flag.ActionTaken != nil && *flag.ActionTaken != "" {
			action = *flag.ActionTaken
		}
		doc.bullet(fmt.Sprintf("[%s] %s - %s", strings.ToUpper(flag.Severity), flag.Flag, action))
	}
	doc.pdf.SetTextColor(0, 0, 0)
	doc.pdf.Ln(2)
}

func (r *Renderer) renderSubjective(doc *document, s *entities.Subjective) {
	doc.sectionHeader("SUBJECTIVE")

	if s.ChiefComplaint != nil {
		doc.subSection("Chief Complaint:")
		doc.body(*s.ChiefComplaint)
	}
	if s.HistoryOfPresentingComplaint != nil {
		doc.subSection("History of Presenting Complaint:")
		doc.body(*s.HistoryOfPresentingComplaint)
	}
	if len(s.Symptoms) > 0 {
		doc.subSection("Symptoms:")
		for _, sym := range s.Symptoms {
			line := sym.Symptom
			if sym.Onset != nil {
				line += " - Onset: " + *sym.Onset
			}
			if sym.Severity != nil {
				line += ", Severity: " + *sym.Severity
			}
			if sym.Characteristics != nil {
				line += " - " + *sym.Characteristics
			}
			doc.bullet(line)
		}
	}
	if len(s.CurrentMedications) > 0 {
		doc.subSection("Current Medications:")
		for _, med := range s.CurrentMedications {
			doc.bullet(joinNonEmpty(" ", med.Medication, deref(med.Dose), deref(med.Frequency)) + dashSuffix(med.Indication))
		}
	}
	if len(s.Allergies) > 0 {
		doc.subSection("Allergies:")
		for _, a := range s.Allergies {
			line := a.Allergen + dashSuffix(a.Reaction)
			if a.Severity != nil {
				line += " (" + *a.Severity + ")"
			}
			doc.bullet(line)
		}
	}
	doc.pdf.Ln(2)
}

func (r *Renderer) renderObjective(doc *document, o *entities.Objective) {
	doc.sectionHeader("OBJECTIVE")

	if readings := o.VitalSigns.Readings(); len(readings) > 0 {
		doc.subSection("Vital Signs:")
		doc.pdf.SetFont("Helvetica", "", 9)
		for _, reading := range readings {
			doc.pdf.SetFillColor(248, 248, 248)
			doc.pdf.CellFormat(50, 6, titleCase(reading.Name), "1", 0, "L", true, 0, "")
			doc.pdf.CellFormat(90, 6, reading.Value, "1", 1, "L", false, 0, "")
		}
		doc.pdf.Ln(2)
	}
	if len(o.PhysicalExamination) > 0 {
		doc.subSection("Physical Examination:")
		for _, exam := range o.PhysicalExamination {
			findings := "No findings documented"
			if exam.Findings != nil && *exam.Findings != "" {
				findings = *exam.Findings
			}
			doc.bullet(titleCase(exam.System) + ": " + findings)
			for _, abn := range exam.Abnormalities {
				doc.bullet("  - " + abn)
			}
		}
	}
	if len(o.Investigations) > 0 {
		doc.subSection("Investigations:")
		for _, inv := range o.Investigations {
			line := inv.TestName
			if inv.Result != nil {
				line += ": " + *inv.Result
			}
			if inv.Interpretation != nil {
				line += " (" + *inv.Interpretation + ")"
			}
			doc.bullet(line)
		}
	}
	doc.pdf.Ln(2)
}

func (r *Renderer) renderAssessment(doc *document, a *entities.Assessment) {
	doc.sectionHeader("ASSESSMENT")

	if a.PrimaryDiagnosis != nil {
		doc.body("Primary Diagnosis: " + *a.PrimaryDiagnosis)
	}
	if a.ClinicalImpression != nil {
		doc.subSection("Clinical Impression:")
		doc.body(*a.ClinicalImpression)
	}
	if len(a.ProblemList) > 0 {
		doc.subSection("Problem List:")
		for _, p := range sortedProblems(a.ProblemList) {
			doc.bullet(p.Problem + dashSuffix(p.Status))
		}
	}
	doc.pdf.Ln(2)
}

func (r *Renderer) renderPlan(doc *document, p *entities.Plan) {
	doc.sectionHeader("PLAN")

	if p.TreatmentPlan != nil {
		doc.body("Treatment Strategy: " + *p.TreatmentPlan)
	}
	if len(p.MedicationsPrescribed) > 0 {
		doc.subSection("Medications Prescribed:")
		for _, med := range p.MedicationsPrescribed {
			line := joinNonEmpty(" ", med.Medication, deref(med.Dose), deref(med.Route), deref(med.Frequency))
			if med.Duration != nil {
				line += " for " + *med.Duration
			}
			doc.bullet(line + dashSuffix(med.Indication))
		}
	}
	if len(p.InvestigationsOrdered) > 0 {
		doc.subSection("Investigations Ordered:")
		for _, inv := range p.InvestigationsOrdered {
			urgency := "routine"
			if inv.Urgency != nil && *inv.Urgency != "" {
				urgency = *inv.Urgency
			}
			doc.bullet(fmt.Sprintf("[%s] %s", strings.ToUpper(urgency), inv.TestName) + dashSuffix(inv.Indication))
		}
	}
	if len(p.Referrals) > 0 {
		doc.subSection("Referrals:")
		for _, ref := range p.Referrals {
			line := ref.Specialty
			if ref.Urgency != nil {
				line += " (" + *ref.Urgency + ")"
			}
			doc.bullet(line + dashSuffix(ref.Reason))
		}
	}
	if p.FollowUp != nil && p.FollowUp.Required {
		doc.subSection("Follow-up:")
		with := "clinician"
		if p.FollowUp.WithWhom != nil && *p.FollowUp.WithWhom != "" {
			with = *p.FollowUp.WithWhom
		}
		doc.bullet(deref(p.FollowUp.Timeframe) + " with " + with + dashSuffix(p.FollowUp.Reason))
	}
	if len(p.SafetyNetting) > 0 {
		doc.subSection("Safety Netting:")
		for _, item := range p.SafetyNetting {
			doc.bullet(item)
		}
	}
}

func (r *Renderer) renderTasks(doc *document, tasks []entities.Task) {
	if len(tasks) == 0 {
		return
	}
	doc.pdf.Ln(4)
	doc.sectionHeader("FOLLOW-UP TASKS")

	groups := []struct {
		heading string
		match   func(entities.Task) bool
	}{
		{"STAT (Immediate):", func(t entities.Task) bool { return t.Urgency == entities.UrgencyStat }},
		{"Urgent:", func(t entities.Task) bool { return t.Urgency == entities.UrgencyUrgent }},
		{"Routine:", func(t entities.Task) bool {
			return t.Urgency == entities.UrgencyRoutine || t.Urgency == entities.UrgencyLow
		}},
	}
	for _, group := range groups {
		var matched []entities.Task
		for _, t := range tasks {
			if group.match(t) {
				matched = append(matched, t)
			}
		}
		if len(matched) == 0 {
			continue
		}
		doc.subSection(group.heading)
		for _, t := range matched {
			owner := deref(t.OwnerRole)
			doc.bullet(fmt.Sprintf("[%s] %s - Assigned to: %s",
				strings.ToUpper(strings.ReplaceAll(string(t.TaskType), "_", " ")), t.Description, owner))
		}
	}
}

func (r *Renderer) renderHandover(doc *document, h *entities.Handover) {
	if h.IsEmpty() {
		return
	}
	doc.pdf.AddPage()
	doc.pdf.SetFont("Helvetica", "B", 18)
	doc.pdf.SetTextColor(26, 84, 144)
	doc.pdf.CellFormat(0, 10, "CLINICAL HANDOVER", "", 1, "C", false, 0, "")
	doc.pdf.SetTextColor(0, 0, 0)
	doc.pdf.Ln(2)

	sbar := []struct {
		heading string
		value   *string
	}{
		{"Situation:", h.Situation},
		{"Background:", h.Background},
		{"Assessment:", h.Assessment},
		{"Recommendation:", h.Recommendation},
	}
	for _, section := range sbar {
		if section.value == nil || *section.value == "" {
			continue
		}
		doc.subSection(section.heading)
		doc.body(*section.value)
	}
	if len(h.ActiveIssues) > 0 {
		doc.subSection("Active Issues:")
		for _, issue := range h.ActiveIssues {
			doc.bullet(issue)
		}
	}
	if len(h.EscalationCriteria) > 0 {
		doc.subSection("Escalation Criteria:")
		for _, c := range h.EscalationCriteria {
			doc.bullet(c)
		}
	}
	if h.NextReviewTime != nil {
		doc.body("Next Review: " + *h.NextReviewTime)
	}
}

func (r *Renderer) renderFooter(doc *document) {
	doc.pdf.Ln(8)
	doc.pdf.SetFont("Helvetica", "I", 8)
	doc.pdf.CellFormat(0, 5, "Generated: "+r.now().Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	doc.pdf.MultiCell(0, 5, "This document was automatically generated from consultation transcript. Please review for accuracy.", "", "L", false)
}

// document wraps the pdf with the small style helpers the sections share
type document struct {
	pdf *fpdf.Fpdf
}

func newDocument() *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	return &document{pdf: pdf}
}

func (d *document) sectionHeader(text string) {
	d.pdf.SetFont("Helvetica", "B", 14)
	d.pdf.SetTextColor(44, 90, 160)
	d.pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *document) subSection(text string) {
	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.SetTextColor(74, 74, 74)
	d.pdf.CellFormat(0, 6, text, "", 1, "L", false, 0, "")
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *document) body(text string) {
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.MultiCell(0, 5, text, "", "L", false)
	d.pdf.Ln(1)
}

func (d *document) bullet(text string) {
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.SetX(d.pdf.GetX() + 5)
	d.pdf.MultiCell(0, 5, "- "+text, "", "L", false)
}

func metaDate(timestamp *string) string {
	if timestamp == nil || *timestamp == "" {
		return "N/A"
	}
	if len(*timestamp) >= 10 {
		return (*timestamp)[:10]
	}
	return *timestamp
}

func titleOrNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return titleCase(*s)
}

// titleCase turns snake_case field values into display headings
func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dashSuffix(s *string) string {
	if s == nil || *s == "" {
		return ""
	}
	return " - " + *s
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// sortedProblems orders the problem list by priority, unprioritized last.
// The incoming slice is not modified.
func sortedProblems(problems []entities.Problem) []entities.Problem {
	out := make([]entities.Problem, len(problems))
	copy(out, problems)
	priority := func(p entities.Problem) int {
		if p.Priority == nil {
			return 999
		}
		return *p.Priority
	}
	sort.SliceStable(out, func(i, j int) bool {
		return priority(out[i]) < priority(out[j])
	})
	return out
}
