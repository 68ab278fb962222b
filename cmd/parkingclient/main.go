// Package main запускает консольный клиент сервиса парковок.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/parking-client/internal/api"
	"github.com/mmeshcher/parking-client/internal/catalog"
	"github.com/mmeshcher/parking-client/internal/config"
	"github.com/mmeshcher/parking-client/internal/history"
	"github.com/mmeshcher/parking-client/internal/model"
	"github.com/mmeshcher/parking-client/internal/occupancy"
	"github.com/mmeshcher/parking-client/internal/session"
	"github.com/mmeshcher/parking-client/internal/vehicles"
	"github.com/mmeshcher/parking-client/internal/workflow"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	if len(cfg.Args) == 0 {
		usage()
		os.Exit(2)
	}

	client := api.NewClient(cfg.APIAddress, cfg.HTTPTimeout, logger)
	sess := session.New(client)

	store, err := session.NewStore()
	if err != nil {
		sugar.Fatalw("session store error", "error", err.Error())
	}
	if restored, err := store.Restore(sess); err != nil {
		sugar.Warnw("session restore failed", "error", err.Error())
	} else if restored {
		sugar.Debugw("session restored from disk")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		cfg:    cfg,
		logger: logger,
		sugar:  sugar,
		client: client,
		sess:   sess,
		store:  store,
		stdin:  bufio.NewReader(os.Stdin),
	}

	if err := a.run(ctx, cfg.Args[0], cfg.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		sugar.Debugw("command failed", "command", cfg.Args[0], "error", err.Error())
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: parkingclient [flags] <command> [args]

commands:
  login                     sign in and store the session
  register                  create an account
  logout                    drop the stored session
  forgot-password           request a password reset mail
  profile [edit]            show or edit the current profile
  parkings [lat lng [km]]   list parkings, optionally near a point
  tariffs <lot-id>          list tariffs of a parking lot
  spaces <lot-id>           list free spaces of a parking lot
  vehicles                  list vehicles
  vehicles add              add a vehicle
  vehicles edit <id>        edit a vehicle
  vehicles rm <id>          delete a vehicle
  reserve <lot-id>          book a space step by step
  reservations              list my reservations
  cancel <reservation-id>   cancel a reservation
  arrive <reservation-id>   mark arrival at the parking
  status [-watch]           show the active parking session
  exit                      mark exit and settle the cost
  request-exit              ask the operator to close the session
  history                   show past operations
  sessions                  show past parking sessions`)
}

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	sugar  *zap.SugaredLogger
	client *api.Client
	sess   *session.Session
	store  *session.Store
	stdin  *bufio.Reader
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx)
	case "register":
		return a.register(ctx)
	case "logout":
		a.sess.Logout()
		return a.store.Clear()
	case "forgot-password":
		return a.forgotPassword(ctx)
	case "profile":
		if len(args) > 0 && args[0] == "edit" {
			return a.editProfile(ctx)
		}
		return a.profile(ctx)
	case "parkings":
		return a.parkings(ctx, args)
	case "tariffs":
		return a.tariffs(ctx, args)
	case "spaces":
		return a.spaces(ctx, args)
	case "vehicles":
		return a.vehicles(ctx, args)
	case "reserve":
		return a.reserve(ctx, args)
	case "reservations":
		return a.reservations(ctx)
	case "cancel":
		return a.cancel(ctx, args)
	case "arrive":
		return a.arrive(ctx, args)
	case "status":
		return a.status(ctx, args)
	case "exit":
		return a.exit(ctx)
	case "request-exit":
		return a.requestExit(ctx)
	case "history":
		return a.history(ctx)
	case "sessions":
		return a.sessions(ctx)
	}

	usage()
	return fmt.Errorf("unknown command %q", command)
}

// waitForAPI ожидает доступности сервера перед длительным сценарием.
// Повторяются только временные сбои.
func (a *app) waitForAPI(ctx context.Context) error {
	backoff := retry.WithMaxRetries(3, retry.NewConstant(2*time.Second))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := a.client.Ping(ctx); err != nil {
			if api.IsTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

func (a *app) prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := a.stdin.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (a *app) login(ctx context.Context) error {
	email := a.cfg.Email
	if email == "" {
		var err error
		if email, err = a.prompt("email: "); err != nil {
			return err
		}
	}
	password, err := a.prompt("password: ")
	if err != nil {
		return err
	}

	user, err := a.sess.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.store.Save(a.sess); err != nil {
		a.sugar.Warnw("session save failed", "error", err.Error())
	}

	fmt.Printf("signed in as %s %s <%s>\n", user.FirstName, user.LastName, user.Email)
	return nil
}

func (a *app) register(ctx context.Context) error {
	in := api.RegisterInput{}
	var err error
	if in.FirstName, err = a.prompt("first name: "); err != nil {
		return err
	}
	if in.LastName, err = a.prompt("last name: "); err != nil {
		return err
	}
	if in.Email, err = a.prompt("email: "); err != nil {
		return err
	}
	if in.Password, err = a.prompt("password: "); err != nil {
		return err
	}
	if in.Phone, err = a.prompt("phone (optional): "); err != nil {
		return err
	}

	user, err := a.sess.Register(ctx, in)
	if err != nil {
		return err
	}

	if a.sess.Authenticated() {
		if err := a.store.Save(a.sess); err != nil {
			a.sugar.Warnw("session save failed", "error", err.Error())
		}
		fmt.Printf("registered and signed in as %s\n", user.Email)
		return nil
	}
	fmt.Println("registered, please login")
	return nil
}

func (a *app) forgotPassword(ctx context.Context) error {
	email := a.cfg.Email
	if email == "" {
		var err error
		if email, err = a.prompt("email: "); err != nil {
			return err
		}
	}
	if err := a.client.ForgotPassword(ctx, email); err != nil {
		return err
	}
	fmt.Println("recovery instructions sent, check your mail")
	return nil
}

func (a *app) profile(ctx context.Context) error {
	user, err := a.sess.RefreshProfile(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s <%s> role=%s\n", user.FirstName, user.LastName, user.Email, user.Role)
	if !a.sess.ExpiresAt().IsZero() {
		fmt.Printf("session expires %s\n", a.sess.ExpiresAt().Local().Format(time.RFC822))
	}
	return nil
}

func (a *app) editProfile(ctx context.Context) error {
	if _, err := a.sess.User(); err != nil {
		return err
	}

	fmt.Println("empty input keeps the current value")
	in := api.ProfileUpdate{}
	var err error
	if in.FirstName, err = a.prompt("first name: "); err != nil {
		return err
	}
	if in.LastName, err = a.prompt("last name: "); err != nil {
		return err
	}
	if in.Email, err = a.prompt("email: "); err != nil {
		return err
	}
	if in.Phone, err = a.prompt("phone: "); err != nil {
		return err
	}

	user, err := a.client.UpdateProfile(ctx, in)
	if err != nil {
		return err
	}
	if _, err := a.sess.RefreshProfile(ctx); err != nil {
		a.sugar.Warnw("profile refresh failed", "error", err.Error())
	}
	if err := a.store.Save(a.sess); err != nil {
		a.sugar.Warnw("session save failed", "error", err.Error())
	}
	fmt.Printf("profile updated: %s %s <%s>\n", user.FirstName, user.LastName, user.Email)
	return nil
}

func (a *app) parkings(ctx context.Context, args []string) error {
	dir := catalog.NewDirectory(a.client)

	if len(args) >= 2 {
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q", args[0])
		}
		lng, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q", args[1])
		}
		radius := 5.0
		if len(args) >= 3 {
			if radius, err = strconv.ParseFloat(args[2], 64); err != nil {
				return fmt.Errorf("invalid radius %q", args[2])
			}
		}

		lots, err := dir.Nearby(ctx, lat, lng, radius)
		if err != nil {
			return err
		}
		printLots(lots)
		return nil
	}

	lots, err := dir.List(ctx)
	if err != nil {
		return err
	}
	printLots(lots)
	return nil
}

func (a *app) tariffs(ctx context.Context, args []string) error {
	lotID, err := a.lotID(args)
	if err != nil {
		return err
	}

	tariffs, err := catalog.NewTariffCatalog(a.client).List(ctx, lotID)
	if err != nil {
		return err
	}
	if len(tariffs) == 0 {
		fmt.Println("no tariffs for this parking")
		return nil
	}
	for _, t := range tariffs {
		fmt.Printf("%4d  %-6s %8s", t.ID, t.Kind, t.Amount)
		if t.Conditions.Valid {
			fmt.Printf("  %s", t.Conditions.String)
		}
		fmt.Println()
	}
	return nil
}

func (a *app) spaces(ctx context.Context, args []string) error {
	lotID, err := a.lotID(args)
	if err != nil {
		return err
	}

	spaces, err := catalog.NewSpaceAvailability(a.client).List(ctx, lotID)
	if err != nil {
		return err
	}
	if len(spaces) == 0 {
		fmt.Println("no free spaces right now")
		return nil
	}
	for _, s := range spaces {
		fmt.Printf("%4d  %s\n", s.ID, s.Label)
	}
	return nil
}

func (a *app) lotID(args []string) (int64, error) {
	if len(args) >= 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid parking lot id %q", args[0])
		}
		return id, nil
	}
	if a.cfg.DefaultLotID != 0 {
		return a.cfg.DefaultLotID, nil
	}
	return 0, errors.New("parking lot id is required")
}

func (a *app) vehicles(ctx context.Context, args []string) error {
	registry := vehicles.NewRegistry(a.client)

	if len(args) == 0 || args[0] == "list" {
		list, err := registry.List(ctx)
		if err != nil {
			return err
		}
		printVehicles(list)
		return nil
	}

	switch args[0] {
	case "add":
		in := api.VehicleInput{}
		var err error
		if in.Make, err = a.prompt("make: "); err != nil {
			return err
		}
		if in.Model, err = a.prompt("model (optional): "); err != nil {
			return err
		}
		if in.Plate, err = a.prompt("plate: "); err != nil {
			return err
		}
		if in.Color, err = a.prompt("color (optional): "); err != nil {
			return err
		}

		created, list, err := registry.Create(ctx, in)
		if err != nil {
			return err
		}
		fmt.Printf("added vehicle %d %s\n", created.ID, created.Plate)
		printVehicles(list)
		return nil
	case "edit":
		if len(args) < 2 {
			return errors.New("vehicle id is required")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid vehicle id %q", args[1])
		}

		in := api.VehicleInput{}
		if in.Make, err = a.prompt("make: "); err != nil {
			return err
		}
		if in.Model, err = a.prompt("model (optional): "); err != nil {
			return err
		}
		if in.Plate, err = a.prompt("plate: "); err != nil {
			return err
		}
		if in.Color, err = a.prompt("color (optional): "); err != nil {
			return err
		}

		updated, list, err := registry.Update(ctx, id, in)
		if err != nil {
			return err
		}
		fmt.Printf("vehicle %d updated\n", updated.ID)
		printVehicles(list)
		return nil
	case "rm":
		if len(args) < 2 {
			return errors.New("vehicle id is required")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid vehicle id %q", args[1])
		}

		list, err := registry.Delete(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println("vehicle deleted")
		printVehicles(list)
		return nil
	}

	return fmt.Errorf("unknown vehicles subcommand %q", args[0])
}

// reserve проводит пользователя по шагам бронирования: тариф, место,
// транспортное средство, подтверждение. Ввод "b" возвращает на шаг
// назад; отступ с первого шага завершает сценарий.
func (a *app) reserve(ctx context.Context, args []string) error {
	lotID, err := a.lotID(args)
	if err != nil {
		return err
	}
	if err := a.waitForAPI(ctx); err != nil {
		return err
	}

	dir := catalog.NewDirectory(a.client)
	lot, err := dir.Get(ctx, lotID)
	if err != nil {
		return err
	}

	tariffs, err := catalog.NewTariffCatalog(a.client).List(ctx, lotID)
	if err != nil {
		return err
	}
	if len(tariffs) == 0 {
		fmt.Println("this parking has no tariffs, booking is not possible")
		return nil
	}

	wf := workflow.New(a.client, lot, tariffs)
	availability := catalog.NewSpaceAvailability(a.client)
	registry := vehicles.NewRegistry(a.client)

	fmt.Printf("booking a space at %s (%s)\n", lot.Name, lot.Address)

	for !wf.Done() {
		switch wf.Step() {
		case workflow.StepTariff:
			fmt.Println("-- step 1/4: tariff")
			for _, t := range wf.Tariffs() {
				fmt.Printf("  %4d  %-6s %8s\n", t.ID, t.Kind, t.Amount)
			}
			back, err := a.selectByID(wf.SelectTariff)
			if err != nil {
				return err
			}
			if back {
				fmt.Println("booking cancelled")
				return nil
			}
		case workflow.StepSpace:
			if wf.Spaces() == nil {
				spaces, err := availability.List(ctx, lotID)
				if err != nil {
					return err
				}
				wf.SetSpaces(spaces)
			}
			fmt.Println("-- step 2/4: space")
			for _, s := range wf.Spaces() {
				fmt.Printf("  %4d  %s\n", s.ID, s.Label)
			}
			back, err := a.selectByID(wf.SelectSpace)
			if err != nil {
				return err
			}
			if back {
				wf.Retreat()
				continue
			}
		case workflow.StepVehicle:
			if wf.Vehicles() == nil {
				list, err := registry.List(ctx)
				if err != nil {
					return err
				}
				wf.SetVehicles(list)
			}
			fmt.Println("-- step 3/4: vehicle")
			for _, v := range wf.Vehicles() {
				fmt.Printf("  %4d  %s %s\n", v.ID, v.Make, v.Plate)
			}
			back, err := a.selectByID(wf.SelectVehicle)
			if err != nil {
				return err
			}
			if back {
				wf.Retreat()
				continue
			}
		case workflow.StepConfirm:
			t, s, v := wf.SelectedTariff(), wf.SelectedSpace(), wf.SelectedVehicle()
			fmt.Println("-- step 4/4: confirm")
			fmt.Printf("  parking: %s\n  space:   %s\n  vehicle: %s\n  tariff:  %s/%s\n",
				lot.Name, s.Label, v.Plate, t.Amount, t.Kind)
			answer, err := a.prompt("confirm booking? [y/b/q]: ")
			if err != nil {
				return err
			}
			switch answer {
			case "b":
				wf.Retreat()
				continue
			case "q":
				fmt.Println("booking cancelled")
				return nil
			case "y":
			default:
				continue
			}

			// Справочная проверка перед отправкой: гонку за место
			// всё равно разрешает сервер при создании бронирования.
			now := time.Now()
			if ok, err := a.client.CheckAvailability(ctx, s.ID, now, now.Add(2*time.Hour)); err == nil && !ok {
				fmt.Println("the space looks taken already, submitting anyway to get the authoritative answer")
			}

			reservation, err := wf.Submit(ctx)
			if err != nil {
				if ce, ok := api.AsConflict(err); ok {
					fmt.Println(userMessage(err))
					if ce.Kind == api.ConflictSpaceUnavailable {
						// Поток уже вернулся на шаг места, список
						// будет перечитан на следующей итерации.
						continue
					}
					return nil
				}
				if api.IsTransient(err) {
					fmt.Println("temporary failure, your selections are kept; confirm again to retry")
					continue
				}
				return err
			}

			fmt.Printf("reservation %d confirmed until %s\n",
				reservation.ID, reservation.EndTime.Local().Format("15:04"))
			fmt.Printf("run 'parkingclient arrive %d' when you get there\n", reservation.ID)
			return nil
		}

		if wf.Step() != workflow.StepConfirm {
			if _, err := wf.Advance(ctx); err != nil {
				fmt.Println(userMessage(err))
			}
		}
	}
	return nil
}

// selectByID читает идентификатор и применяет выбор; "b" — шаг назад.
func (a *app) selectByID(apply func(int64) bool) (back bool, err error) {
	for {
		answer, err := a.prompt("select id (b to go back): ")
		if err != nil {
			return false, err
		}
		if answer == "b" {
			return true, nil
		}
		id, convErr := strconv.ParseInt(answer, 10, 64)
		if convErr != nil {
			fmt.Println("enter a numeric id from the list")
			continue
		}
		if !apply(id) {
			fmt.Println("no such id in the list")
			continue
		}
		return false, nil
	}
}

func (a *app) reservations(ctx context.Context) error {
	list, err := a.client.MyReservations(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no reservations")
		return nil
	}
	for _, r := range list {
		place := ""
		if r.Space != nil {
			place = fmt.Sprintf("%s / %s", r.Space.ParkingName, r.Space.Label)
		}
		fmt.Printf("%5d  %-9s  %s  %s\n",
			r.ID, r.Status, r.StartTime.Local().Format("02 Jan 15:04"), place)
	}
	return nil
}

func (a *app) cancel(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("reservation id is required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid reservation id %q", args[0])
	}

	if err := a.client.CancelReservation(ctx, id); err != nil {
		return err
	}
	fmt.Println("reservation cancelled")
	return nil
}

func (a *app) arrive(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("reservation id is required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid reservation id %q", args[0])
	}

	tracker := occupancy.NewTracker(a.client, a.logger)
	occID, err := tracker.MarkArrival(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("arrival registered, occupancy %d; the clock is running\n", occID)
	fmt.Println("run 'parkingclient status -watch' to follow time and cost")
	return nil
}

func (a *app) status(ctx context.Context, args []string) error {
	watch := len(args) > 0 && args[0] == "-watch"

	tracker := occupancy.NewTracker(a.client, a.logger)
	snap, err := tracker.Load(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		fmt.Println("no active parking session")
		return nil
	}

	printSnapshot(*snap)
	if !watch {
		return nil
	}

	// Показания обновляются раз в минуту до выезда или прерывания.
	g, gctx := errgroup.WithContext(ctx)
	stopTick := tracker.Start(gctx, func(s occupancy.Snapshot) {
		printSnapshot(s)
	})
	defer stopTick()

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}

func (a *app) exit(ctx context.Context) error {
	tracker := occupancy.NewTracker(a.client, a.logger)
	snap, err := tracker.Load(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		fmt.Println("no active parking session")
		return nil
	}

	fmt.Printf("you will be charged %s for %s\n",
		snap.AccruedCost, occupancy.FormatElapsed(snap.Elapsed))
	answer, err := a.prompt("mark exit? [y/n]: ")
	if err != nil {
		return err
	}
	if answer != "y" {
		return nil
	}

	receipt, err := tracker.MarkExit(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("exit registered: %.2f hours, total %s\n",
		receipt.FinalElapsedHours, receipt.FinalCost)
	return nil
}

func (a *app) requestExit(ctx context.Context) error {
	tracker := occupancy.NewTracker(a.client, a.logger)
	snap, err := tracker.Load(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		fmt.Println("no active parking session")
		return nil
	}

	req, err := tracker.RequestExit(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("exit requested, payment %d, estimated %s for %d min; the operator will close the session\n",
		req.PaymentID, req.EstimatedCost, req.ElapsedMinutes)
	return nil
}

func (a *app) history(ctx context.Context) error {
	user, err := a.sess.User()
	if err != nil {
		return err
	}

	entries, summary, err := history.NewAggregator(a.client).Fetch(ctx, user.ID, api.HistoryFilters{Limit: 100})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("history is empty")
		return nil
	}

	for _, e := range entries {
		when := "-"
		if e.EntryAt.Valid {
			when = e.EntryAt.Time.Local().Format("02 Jan 15:04")
		} else if e.CreatedAt.Valid {
			when = e.CreatedAt.Time.Local().Format("02 Jan 15:04")
		}
		paid := "-"
		if e.Payment != nil {
			paid = e.Payment.Amount.String()
		}
		fmt.Printf("%-12s %-11s %-10s %8s  %s\n",
			e.Kind, e.FinalStatus, when, paid, e.Plate.ValueOrZero())
	}
	fmt.Printf("total %d, completed %d, cancelled %d, paid %s\n",
		summary.Total, summary.Completed, summary.Cancelled, summary.TotalPaid)
	return nil
}

func (a *app) sessions(ctx context.Context) error {
	occupancies, err := a.client.OccupancyHistory(ctx)
	if err != nil {
		return err
	}
	if len(occupancies) == 0 {
		fmt.Println("no past parking sessions")
		return nil
	}
	for _, o := range occupancies {
		exit := "open"
		if o.ExitTime.Valid {
			exit = o.ExitTime.Time.Local().Format("02 Jan 15:04")
		}
		cost := "-"
		if o.ComputedCost.Valid {
			cost = model.Cents(o.ComputedCost.Int64).String()
		}
		fmt.Printf("%5d  %s  %s -> %s  %8s  %s\n",
			o.ID, o.VehiclePlate,
			o.EntryTime.Local().Format("02 Jan 15:04"), exit,
			cost, o.ParkingName)
	}
	return nil
}

func printLots(lots []model.ParkingLot) {
	if len(lots) == 0 {
		fmt.Println("no parkings found")
		return
	}
	for _, lot := range lots {
		fmt.Printf("%4d  %-24s %s (%d spaces)\n", lot.ID, lot.Name, lot.Address, lot.Capacity)
	}
}

func printVehicles(list []model.Vehicle) {
	if len(list) == 0 {
		fmt.Println("no vehicles registered")
		return
	}
	for _, v := range list {
		fmt.Printf("%4d  %-10s %-12s %s\n", v.ID, v.Plate, v.Make, v.Model.ValueOrZero())
	}
}

func printSnapshot(s occupancy.Snapshot) {
	fmt.Printf("[%s] %s at %s, space %s: %s elapsed, %s accrued (rate %s/h)\n",
		time.Now().Local().Format("15:04"),
		s.Occupancy.VehiclePlate,
		s.Occupancy.ParkingName,
		s.Occupancy.SpaceLabel,
		occupancy.FormatElapsed(s.Elapsed),
		s.AccruedCost,
		s.Occupancy.HourlyRate)
	if s.ClockSkew {
		fmt.Println("warning: entry time is ahead of local clock, elapsed time shown as zero")
	}
}

// userMessage переводит ошибку в сообщение для пользователя вместе
// с действием восстановления; сырые транспортные ошибки наружу
// не показываются.
func userMessage(err error) string {
	var ce *api.ConflictError
	switch {
	case errors.As(err, &ce):
		switch ce.Kind {
		case api.ConflictActiveReservation:
			return "you already have an active reservation; run 'parkingclient reservations' to manage it"
		case api.ConflictSpaceUnavailable:
			return "that space was just taken by someone else; pick another one from the refreshed list"
		case api.ConflictNotCancellable:
			return "this reservation is already finished and cannot be cancelled"
		}
	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, session.ErrNotAuthenticated):
		return "the session has expired, please run 'parkingclient login'"
	case errors.Is(err, api.ErrNotFound):
		return "nothing found by this id"
	case errors.Is(err, workflow.ErrTariffRequired),
		errors.Is(err, workflow.ErrSpaceRequired),
		errors.Is(err, workflow.ErrVehicleRequired):
		return err.Error()
	case errors.Is(err, vehicles.ErrInvalidPlate):
		return "plate must look like ABC-1234"
	case errors.Is(err, vehicles.ErrMissingMake):
		return "vehicle make is required"
	case errors.Is(err, occupancy.ErrNoActiveOccupancy):
		return "no active parking session"
	case api.IsTransient(err):
		return "the service is temporarily unavailable, please try again"
	}
	return err.Error()
}
