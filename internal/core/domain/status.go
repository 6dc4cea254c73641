package domain

// LoanStatus (estado) of a loan
type LoanStatus string

const (
	LoanPending   LoanStatus = "Pendiente"
	LoanActive    LoanStatus = "Activo"
	LoanOverdue   LoanStatus = "Vencido"
	LoanReturned  LoanStatus = "Devuelto"
	LoanCancelled LoanStatus = "Cancelado"
)

// LoanStatuses lists loan statuses in display order
var LoanStatuses = []LoanStatus{LoanPending, LoanActive, LoanOverdue, LoanReturned, LoanCancelled}

// Description returns the display label of the status
func (s LoanStatus) Description() string {
	switch s {
	case LoanPending:
		return "Pendiente"
	case LoanActive:
		return "Activo"
	case LoanOverdue:
		return "Vencido"
	case LoanReturned:
		return "Devuelto"
	case LoanCancelled:
		return "Cancelado"
	default:
		return string(s)
	}
}

// IsOpen reports whether the loan still holds the book
func (s LoanStatus) IsOpen() bool {
	return s == LoanPending || s == LoanActive || s == LoanOverdue
}

// BookStatus (estado) of a book copy
type BookStatus string

const (
	BookAvailable BookStatus = "Disponible"
	BookLoaned    BookStatus = "Prestado"
	BookReserved  BookStatus = "Reservado"
	BookRepair    BookStatus = "EnReparacion"
	BookInactive  BookStatus = "Inactivo"
)

// BookStatuses lists book statuses in display order
var BookStatuses = []BookStatus{BookAvailable, BookLoaned, BookReserved, BookRepair, BookInactive}

// Description returns the display label of the status
func (s BookStatus) Description() string {
	switch s {
	case BookAvailable:
		return "Disponible"
	case BookLoaned:
		return "Prestado"
	case BookReserved:
		return "Reservado"
	case BookRepair:
		return "En reparación"
	case BookInactive:
		return "Inactivo"
	default:
		return string(s)
	}
}
