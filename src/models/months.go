package models

// MonthLabels are the twelve month names used as pivot bucket slots and
// as the free-text month label on transaction records.
var MonthLabels = []string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}
