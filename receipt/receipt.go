// Package receipt renders appointment receipts as PDF documents.
package receipt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const ContentType = "application/pdf"

// Terms printed at the bottom of every receipt.
var Terms = []string{
	"1. Appointment Policy: Appointments must be booked at least 2 hours in advance.",
	"2. Receipt Download: Receipts can be downloaded only 1 hour before the appointment time.",
	"3. Cancellation Policy: Cancellations must be made at least 2 hours before the appointment.",
	"4. Late Arrivals: Late arrivals may result in reduced consultation time.",
	"5. No-shows: No-shows will be charged the full consultation fee.",
	"6. Refund Policy: Refunds are processed within 5-7 business days.",
}

// Data is everything printed on a receipt.
type Data struct {
	AppointmentID  uint
	IssuedAt       time.Time
	Status         string
	PatientName    string
	PatientEmail   string
	Date           string
	Time           string
	DoctorName     string
	Specialization string
	Hospital       string
	Address        string
	Experience     int
	Fee            string
	PaymentID      string
	OrderID        string
}

// Filename is the attachment name for an appointment's receipt.
func Filename(appointmentID uint) string {
	return fmt.Sprintf("medicare_receipt_%d.pdf", appointmentID)
}

type Renderer interface {
	Render(data Data) ([]byte, error)
}

// PDF renders receipts with gofpdf.
type PDF struct{}

func (PDF) Render(d Data) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(30, 64, 175)
	pdf.CellFormat(0, 12, "MEDICARE+ - APPOINTMENT RECEIPT", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetTextColor(0, 0, 0)
	addDetail(pdf, "Receipt No", fmt.Sprintf("#%d", d.AppointmentID), true)
	addDetail(pdf, "Issue Date", d.IssuedAt.Format("02-01-2006 15:04"), true)
	addDetail(pdf, "Status", d.Status, true)

	section(pdf, "PATIENT INFORMATION")
	addDetail(pdf, "Full Name", d.PatientName, false)
	addDetail(pdf, "Email", d.PatientEmail, false)
	addDetail(pdf, "Appointment Date", d.Date, false)
	addDetail(pdf, "Appointment Time", d.Time, false)

	section(pdf, "DOCTOR & APPOINTMENT DETAILS")
	addDetail(pdf, "Doctor Name", "Dr. "+d.DoctorName, false)
	addDetail(pdf, "Specialization", d.Specialization, false)
	addDetail(pdf, "Hospital/Clinic", d.Hospital, false)
	addDetail(pdf, "Address", d.Address, false)
	addDetail(pdf, "Experience", fmt.Sprintf("%d+ years", d.Experience), false)

	section(pdf, "PAYMENT DETAILS")
	addDetail(pdf, "Consultation Fee", d.Fee, false)
	if d.PaymentID != "" {
		addDetail(pdf, "Payment ID", d.PaymentID, false)
	}
	if d.OrderID != "" {
		addDetail(pdf, "Order ID", d.OrderID, false)
	}
	addDetail(pdf, "Total Amount", d.Fee, true)

	section(pdf, "TERMS & CONDITIONS")
	pdf.SetFont("Arial", "", 9)
	for _, line := range Terms {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 5, "This is a computer-generated receipt. No signature required.", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "For any queries, contact: support@medicare.com | 1-800-MEDICARE", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Thank you for choosing MediCare+!", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt %d: %w", d.AppointmentID, err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(30, 64, 175)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// addDetail writes one label/value row.
func addDetail(pdf *gofpdf.Fpdf, label, value string, bold bool) {
	if bold {
		pdf.SetFont("Arial", "B", 10)
	} else {
		pdf.SetFont("Arial", "", 10)
	}
	pdf.CellFormat(50, 8, label, "1", 0, "", false, 0, "")
	pdf.CellFormat(0, 8, value, "1", 1, "", false, 0, "")
}
