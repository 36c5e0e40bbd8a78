package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PayComponent is a reusable definition of an element of compensation or deduction.
// An empty Department means the component is system-wide.
type PayComponent struct {
	ID            int64           `json:"id"`
	TenantID      string          `json:"tenant_id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Taxable       bool            `json:"taxable"`
	ComputeMethod string          `json:"compute_method"`
	DefaultAmount decimal.Decimal `json:"default_amount"`
	Formula       string          `json:"formula,omitempty"`
	Department    string          `json:"department,omitempty"`
	AutoAssign    bool            `json:"auto_assign"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Signature identifies components that would pay the "same thing" to a staff member.
type Signature struct {
	Type string
	Name string
}

// Signature returns the (type, normalized name) pair used for de-duplication
func (c *PayComponent) Signature() Signature {
	return Signature{
		Type: strings.ToUpper(strings.TrimSpace(c.Type)),
		Name: strings.ToLower(strings.Join(strings.Fields(c.Name), " ")),
	}
}

// IsSystemWide returns true when the component is not scoped to a department
func (c *PayComponent) IsSystemWide() bool {
	return strings.TrimSpace(c.Department) == ""
}

// ComponentFilter narrows PayComponent listings
type ComponentFilter struct {
	Type       string
	Department string
	AutoAssign *bool
}

// ComponentPatch carries a partial update; nil fields are left unchanged
type ComponentPatch struct {
	Code          *string          `json:"code,omitempty"`
	Name          *string          `json:"name,omitempty"`
	Type          *string          `json:"type,omitempty"`
	Taxable       *bool            `json:"taxable,omitempty"`
	ComputeMethod *string          `json:"compute_method,omitempty"`
	DefaultAmount *decimal.Decimal `json:"default_amount,omitempty"`
	Formula       *string          `json:"formula,omitempty"`
	Department    *string          `json:"department,omitempty"`
	AutoAssign    *bool            `json:"auto_assign,omitempty"`
}

// Apply copies the non-nil fields of the patch onto c
func (p ComponentPatch) Apply(c *PayComponent) {
	if p.Code != nil {
		c.Code = *p.Code
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Taxable != nil {
		c.Taxable = *p.Taxable
	}
	if p.ComputeMethod != nil {
		c.ComputeMethod = *p.ComputeMethod
	}
	if p.DefaultAmount != nil {
		c.DefaultAmount = *p.DefaultAmount
	}
	if p.Formula != nil {
		c.Formula = *p.Formula
	}
	if p.Department != nil {
		c.Department = *p.Department
	}
	if p.AutoAssign != nil {
		c.AutoAssign = *p.AutoAssign
	}
}
