// Package calendar contiene aritmética pura de fechas de calendario.
// Sin estado, sin I/O: la normalización de timezone ocurre en el borde
// del sistema, nunca acá adentro.
package calendar

import "time"

// DateFormat es el formato de fecha en el wire (YYYY-MM-DD).
const DateFormat = "2006-01-02"

// Normalize trunca un instante a su fecha de calendario (medianoche UTC).
// Todas las funciones de este paquete asumen fechas ya normalizadas.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays suma n días (n puede ser negativo).
func AddDays(d time.Time, n int) time.Time {
	return Normalize(d).AddDate(0, 0, n)
}

// DaysBetween devuelve b - a en días calendario.
func DaysBetween(a, b time.Time) int {
	a = Normalize(a)
	b = Normalize(b)
	return int(b.Sub(a).Hours() / 24)
}

// DayOfWeek devuelve 0..6 con 0 = domingo (convención time.Weekday).
func DayOfWeek(d time.Time) int {
	return int(Normalize(d).Weekday())
}

// DayOfMonth devuelve 1..31.
func DayOfMonth(d time.Time) int {
	return Normalize(d).Day()
}

// SameDay compara por fecha de calendario, ignorando hora y zona.
func SameDay(a, b time.Time) bool {
	return Normalize(a).Equal(Normalize(b))
}

// DaysInMonth devuelve la cantidad de días del mes (28..31).
func DaysInMonth(year int, month time.Month) int {
	// día 0 del mes siguiente = último día de este mes
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampToMonthEnd arma la fecha (year, month, day) ajustando day al último
// día válido del mes cuando se pasa (ej: 31 en febrero => 28 o 29).
// Así los schedules mensuales nunca fallan en meses cortos.
func ClampToMonthEnd(year int, month time.Month, day int) time.Time {
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parsea YYYY-MM-DD a fecha normalizada.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, err
	}
	return Normalize(t), nil
}

// FormatDate serializa como YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return Normalize(d).Format(DateFormat)
}
