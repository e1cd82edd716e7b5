// Package canteen holds the two parties of a sale: the vendor running a
// stall and the customer ordering from it.
package canteen

import (
	"sync"

	"canteen-system/internal/feedback"
	"canteen-system/internal/menu"
)

// Vendor owns one menu, accumulates earnings from settled payments and
// collects feedback. Earnings only ever grow.
type Vendor struct {
	vendorID string
	name     string
	menu     *menu.Menu

	mu           sync.Mutex
	earnings     float64
	feedbackList []*feedback.Feedback
}

// NewVendor creates a vendor with an empty menu.
func NewVendor(vendorID, name string) *Vendor {
	return &Vendor{
		vendorID: vendorID,
		name:     name,
		menu:     menu.New(),
	}
}

func (v *Vendor) VendorID() string { return v.vendorID }
func (v *Vendor) Name() string     { return v.name }

// Menu returns the vendor's menu.
func (v *Vendor) Menu() *menu.Menu {
	return v.menu
}

// RecordEarnings adds a settled amount to the vendor's earnings. Only a
// successful payment settle calls this.
func (v *Vendor) RecordEarnings(amount float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.earnings += amount
}

// Earnings returns the accumulated earnings.
func (v *Vendor) Earnings() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.earnings
}

// AddFeedback appends a feedback record to the vendor's collection.
func (v *Vendor) AddFeedback(f *feedback.Feedback) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.feedbackList = append(v.feedbackList, f)
}

// FeedbackList returns the collected feedback in submission order.
func (v *Vendor) FeedbackList() []*feedback.Feedback {
	v.mu.Lock()
	defer v.mu.Unlock()
	list := make([]*feedback.Feedback, len(v.feedbackList))
	copy(list, v.feedbackList)
	return list
}
