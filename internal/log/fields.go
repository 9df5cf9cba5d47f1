package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldOperation    = "operation"
	FieldError        = "error"
	FieldErrorType    = "error_type"
	FieldDuration     = "duration_ms"
	FieldPeriod       = "period"
	FieldYear         = "year"
	FieldMonth        = "month"
	FieldBillingType  = "billing_type"
	FieldRefID        = "ref_id"
	FieldStudentID    = "student_id"
	FieldCourse       = "course"
	FieldCategory     = "grade_category"
	FieldBilledAmount = "billed_amount"
	FieldPaidAmount   = "paid_amount"
	FieldMethod       = "payment_method"
	FieldStatus       = "status"
	FieldItemCount    = "items"
	FieldSheetsRange  = "sheets_range"
	FieldMessageID    = "message_id"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentPricing   = "pricing"
	ComponentBilling   = "billing"
	ComponentReconcile = "reconcile"
	ComponentReport    = "report"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
)

// Operations defines standard operation names
const (
	OpBill      = "bill"
	OpPrint     = "print"
	OpRecord    = "record_payment"
	OpToggle    = "toggle_method"
	OpSetMethod = "set_method"
	OpDelete    = "delete_payment"
	OpSnapshot  = "load_snapshot"
	OpSummary   = "summary"
	OpExport    = "export"
	OpValidate  = "validate"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypePricing       = "pricing_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithItem adds the billed-item identity fields
func (f LogFields) WithItem(billingType string, refID int64, period string) LogFields {
	f[FieldBillingType] = billingType
	f[FieldRefID] = refID
	f[FieldPeriod] = period
	return f
}

// WithAmounts adds billed and paid amounts in whole yen
func (f LogFields) WithAmounts(billed, paid int64) LogFields {
	f[FieldBilledAmount] = billed
	f[FieldPaidAmount] = paid
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
