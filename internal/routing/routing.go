package routing

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"

	"churchcheckin/internal/config"
	"churchcheckin/pkg/attendance"
	"churchcheckin/pkg/handlers"
	"churchcheckin/pkg/live"
	"churchcheckin/pkg/member"
	"churchcheckin/pkg/qrtoken"
	"churchcheckin/pkg/scanlog"
	"churchcheckin/pkg/session"
	"churchcheckin/pkg/target"
	"churchcheckin/pkg/user"
)

const (
	uuidPattern     = "[0-9a-fA-F-]{36}"
	shutdownTimeout = 10 * time.Second
)

func InitRoutes(api *mux.Router, db *sql.DB, mongoDB *mongo.Database, hub *live.Hub, cfg *config.Config, logger *slog.Logger) {

	sessionRepo := session.NewMySQLSessionRepo(db)

	userService := user.NewService(user.NewMySQLRepo(db), sessionRepo)
	userHandler := handlers.NewUserHandler(userService, logger, cfg.JWTSecret)

	codec := qrtoken.NewCodec(
		qrtoken.WithMaxValidity(cfg.QRMaxValidityMinutes),
		qrtoken.RequireUUID(),
	)

	memberService := member.NewService(member.NewMySQLRepo(db))
	memberHandler := handlers.NewMemberHandler(memberService, logger)

	targetService := target.NewService(target.NewMySQLRepo(db))
	targetHandler := handlers.NewTargetHandler(targetService, logger)

	qrHandler := handlers.NewQRHandler(targetService, codec, logger)

	attendanceService := attendance.NewService(attendance.NewMySQLRepo(db), codec)
	attendanceHandler := handlers.NewAttendanceHandler(
		attendanceService,
		scanlog.NewMongoRepo(mongoDB),
		codec,
		hub,
		logger,
	)

	/* -+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+ */

	authRouter := api.PathPrefix("").Subrouter()
	membersRouter := api.PathPrefix("/members").Subrouter()
	targetsRouter := api.PathPrefix("/targets").Subrouter()
	checkinRouter := api.PathPrefix("/checkin").Subrouter()

	/* auth routers */
	authRouter.HandleFunc("/register", userHandler.Register).Methods("POST").Name("register")
	authRouter.HandleFunc("/login", userHandler.Login).Methods("POST").Name("login")

	/* member routers */
	membersRouter.HandleFunc("", memberHandler.Create).Methods("POST")
	membersRouter.HandleFunc("/{member_id:"+uuidPattern+"}", memberHandler.Get).Methods("GET")

	/* target routers */
	targetsRouter.HandleFunc("", targetHandler.Create).Methods("POST")
	targetsRouter.HandleFunc("/{target_id:"+uuidPattern+"}", targetHandler.Get).Methods("GET")
	targetsRouter.HandleFunc("/{target_id:"+uuidPattern+"}/qr", qrHandler.Generate).Methods("POST")
	targetsRouter.HandleFunc("/{target_id:"+uuidPattern+"}/attendance", attendanceHandler.List).Methods("GET")
	targetsRouter.HandleFunc("/{target_id:"+uuidPattern+"}/scans", attendanceHandler.Scans).Methods("GET")
	targetsRouter.HandleFunc("/{target_id:"+uuidPattern+"}/live", attendanceHandler.Live).Methods("GET")

	/* qr + check-in routers */
	api.HandleFunc("/qr/validate", qrHandler.Validate).Methods("POST")
	checkinRouter.HandleFunc("", attendanceHandler.CheckIn).Methods("POST")
	checkinRouter.HandleFunc("/scan", attendanceHandler.Scan).Methods("POST")
	checkinRouter.HandleFunc("/bulk", attendanceHandler.Bulk).Methods("POST")
	api.HandleFunc("/attendance/{attendance_id:"+uuidPattern+"}/checkout", attendanceHandler.CheckOut).Methods("POST")
}

func ServeFallback(r *mux.Router, logger *slog.Logger) {
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("no route", slog.String("method", r.Method), slog.String("path", r.URL.Path))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		if _, err := w.Write([]byte(`{"error":"not found","code":"NOT_FOUND"}`)); err != nil {
			logger.Error("failed to write fallback JSON", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
	})
}

// StartServer serves until ctx is cancelled, then drains open requests.
func StartServer(ctx context.Context, r *mux.Router, addr string, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is running", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
