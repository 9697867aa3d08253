package dataset

import (
	"time"

	"github.com/go-gota/gota/series"

	"github.com/limnoml/oxypred/pkg/errors"
)

// Derived date column names appended by EngineerDates.
const (
	YearColumn      = "year"
	MonthColumn     = "month"
	DayOfWeekColumn = "day_of_week"
)

// EngineerDates parses the date column with the given layout (the
// source data uses DD.MM.YYYY, layout "02.01.2006"), appends integer
// year, month (1-12), and day-of-week (Monday=0 .. Sunday=6) columns,
// then drops the identifier and raw date columns. The identifier
// values are retained in SiteIDs. Any unparseable date aborts with the
// offending row.
func (t *Table) EngineerDates(layout string) error {
	if !t.HasColumn(t.DateColumn) {
		return errors.NewDataError("EngineerDates", t.DateColumn, -1, errors.ErrMissingColumn)
	}
	if !t.HasColumn(t.IDColumn) {
		return errors.NewDataError("EngineerDates", t.IDColumn, -1, errors.ErrMissingColumn)
	}

	records := t.df.Col(t.DateColumn).Records()
	years := make([]int, len(records))
	months := make([]int, len(records))
	weekdays := make([]int, len(records))

	for i, rec := range records {
		parsed, err := time.Parse(layout, rec)
		if err != nil {
			return errors.NewDataError("EngineerDates", t.DateColumn, i, err)
		}
		years[i] = parsed.Year()
		months[i] = int(parsed.Month())
		// time.Weekday counts Sunday=0; shift to ISO Monday=0.
		weekdays[i] = (int(parsed.Weekday()) + 6) % 7
	}

	df := t.df.
		Mutate(series.New(years, series.Int, YearColumn)).
		Mutate(series.New(months, series.Int, MonthColumn)).
		Mutate(series.New(weekdays, series.Int, DayOfWeekColumn))
	if df.Err != nil {
		return errors.NewDataError("EngineerDates", "", -1, df.Err)
	}

	t.SiteIDs = t.df.Col(t.IDColumn).Records()

	keep := make([]string, 0, df.Ncol()-2)
	for _, name := range df.Names() {
		if name != t.IDColumn && name != t.DateColumn {
			keep = append(keep, name)
		}
	}
	df = df.Select(keep)
	if df.Err != nil {
		return errors.NewDataError("EngineerDates", "", -1, df.Err)
	}

	t.df = df
	return nil
}
