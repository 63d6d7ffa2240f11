// Package console is the interactive text menu over the maintenance
// service.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motolog/internal/maintenance"
	"github.com/ukydev/motolog/internal/models"
)

const menu = `
===== Vehicle Maintenance =====
[1] Add item
[2] Edit item
[3] Remove item
[4] Report to screen
[5] Report to file
[6] Exit
`

type prompt struct {
	label string
	field *models.FormValue
}

// Console reads commands from in and writes to out.
type Console struct {
	service *maintenance.Service
	in      *bufio.Scanner
	out     io.Writer
}

// New creates a console. Dates are read with the service's date layout.
func New(service *maintenance.Service, in io.Reader, out io.Writer) *Console {
	return &Console{service: service, in: bufio.NewScanner(in), out: out}
}

// Run shows the menu until the user exits or input ends. Only failures to
// read input are returned; operation errors are printed and the menu
// shown again.
func (c *Console) Run(ctx context.Context) error {
	for {
		fmt.Fprint(c.out, menu)
		choice, ok := c.ask("Choose an option: ")
		if !ok {
			return c.in.Err()
		}

		var err error
		switch choice {
		case "1":
			err = c.add(ctx)
		case "2":
			err = c.edit(ctx)
		case "3":
			err = c.remove(ctx)
		case "4":
			err = c.printReport(ctx)
		case "5":
			err = c.saveReport(ctx)
		case "6":
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(c.out, "\nInvalid option. Try again.")
			continue
		}

		if errors.Is(err, io.EOF) {
			return c.in.Err()
		}
		if err != nil {
			c.printError(err)
		}
	}
}

func (c *Console) add(ctx context.Context) error {
	var form models.Form
	if err := c.fill(&form, false); err != nil {
		return err
	}
	id, err := c.service.Create(ctx, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nItem added successfully! (id %d)\n", id)
	return nil
}

func (c *Console) edit(ctx context.Context) error {
	id, err := c.pickItem(ctx, "edit")
	if err != nil || id == 0 {
		return err
	}
	current, err := c.service.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, "Press Enter to keep the current value.")
	form := models.FormFrom(*current, c.service.DateLayout())
	if err := c.fill(&form, true); err != nil {
		return err
	}
	if err := c.service.Update(ctx, id, form); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "\nItem updated successfully!")
	return nil
}

func (c *Console) remove(ctx context.Context) error {
	id, err := c.pickItem(ctx, "remove")
	if err != nil || id == 0 {
		return err
	}
	item, err := c.service.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.service.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nItem '%s' removed successfully!\n", item.Name)
	return nil
}

func (c *Console) printReport(ctx context.Context) error {
	r, err := c.service.Report(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\n%s\n", r.Text)
	return nil
}

func (c *Console) saveReport(ctx context.Context) error {
	r, path, err := c.service.SaveReport(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nReport with %d item(s) saved to: %s\n", r.Count, path)
	return nil
}

// pickItem lists the items and asks for one by id. It returns 0 when
// there is nothing to choose.
func (c *Console) pickItem(ctx context.Context, action string) (int64, error) {
	items, err := c.service.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		fmt.Fprintf(c.out, "\nNo items to %s.\n", action)
		return 0, nil
	}

	fmt.Fprintln(c.out)
	for _, item := range items {
		fmt.Fprintf(c.out, "[%d] %s (next: %d or %s)\n", item.ID, item.Name, item.NextDueOdometer, item.NextDueDate)
	}
	answer, ok := c.ask(fmt.Sprintf("\nEnter the id of the item to %s: ", action))
	if !ok {
		return 0, io.EOF
	}
	id, err := strconv.ParseInt(answer, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q is not a valid id", answer)
	}
	return id, nil
}

// fill prompts for every form field. With keep set, an empty answer keeps
// the value already in form.
func (c *Console) fill(form *models.Form, keep bool) error {
	dateHint := "YYYY-MM-DD"
	if c.service.DateLayout() == models.DisplayDateLayout {
		dateHint = "DD/MM/YYYY"
	}
	prompts := []prompt{
		{"Part or service name", &form.Name},
		{"Cost (e.g. 50.00)", &form.Cost},
		{"Service date (" + dateHint + ")", &form.ServiceDate},
		{"Odometer at service", &form.ServiceOdometer},
		{"Replace again after how many km? (e.g. 2000)", &form.IntervalDistance},
		{"Replace again after how many months? (e.g. 12)", &form.IntervalMonths},
	}

	for _, p := range prompts {
		label := p.label
		if keep {
			label += " [" + string(*p.field) + "]"
		}
		answer, ok := c.ask(label + ": ")
		if !ok {
			return io.EOF
		}
		if answer == "" && keep {
			continue
		}
		*p.field = models.FormValue(answer)
	}
	return nil
}

func (c *Console) ask(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) printError(err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintln(c.out, "\nError: invalid input. Try again.")
		for _, f := range verr.Fields {
			fmt.Fprintf(c.out, "  - %s: %s\n", f.Field, f.Reason)
		}
	case errors.Is(err, models.ErrNotFound):
		fmt.Fprintln(c.out, "\nError: no item with that id.")
	case errors.Is(err, models.ErrReportWrite):
		log.WithError(err).Error("Failed to save report")
		fmt.Fprintln(c.out, "\nError: could not save the report.")
	default:
		log.WithError(err).Error("Console operation failed")
		fmt.Fprintf(c.out, "\nError: %v\n", err)
	}
}
