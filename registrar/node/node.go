// Package node is the main service which launches the registrar core and
// manages the lifecycle of all its associated services at runtime, such as
// the verification engine, scheduler and notifier, gracefully closing them
// if the process ends.
package node

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/registrarlabs/registrar/cmd"
	"github.com/registrarlabs/registrar/config/params"
	"github.com/registrarlabs/registrar/monitoring/prometheus"
	"github.com/registrarlabs/registrar/monitoring/tracing"
	"github.com/registrarlabs/registrar/registrar/admin"
	"github.com/registrarlabs/registrar/registrar/db"
	"github.com/registrarlabs/registrar/registrar/db/kv"
	"github.com/registrarlabs/registrar/registrar/notifier"
	"github.com/registrarlabs/registrar/registrar/scheduler"
	"github.com/registrarlabs/registrar/registrar/verification"
	"github.com/registrarlabs/registrar/runtime"
	"github.com/registrarlabs/registrar/runtime/debug"
	"github.com/registrarlabs/registrar/runtime/version"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "node")

// RegistrarNode defines a struct that handles the services running the
// registrar verification core. It handles the lifecycle of the entire system
// and registers services to a service registry.
type RegistrarNode struct {
	cliCtx           *cli.Context
	ctx              context.Context
	cancel           context.CancelFunc
	lock             sync.RWMutex
	services         *runtime.ServiceRegistry
	stop             chan struct{} // Channel to wait for termination notifications.
	db               db.Database
	accountStateFeed *event.Feed
	admin            *admin.Processor
}

// New creates a new node instance, sets up configuration options, and
// registers every required service to the node.
func New(cliCtx *cli.Context) (*RegistrarNode, error) {
	if err := tracing.Setup(
		"registrar", // service name
		cliCtx.String(cmd.TracingProcessNameFlag.Name),
		cliCtx.String(cmd.TracingEndpointFlag.Name),
		cliCtx.Float64(cmd.TraceSampleFractionFlag.Name),
		cliCtx.Bool(cmd.EnableTracingFlag.Name),
	); err != nil {
		return nil, err
	}

	if cliCtx.Bool(cmd.DevnetFlag.Name) {
		log.WithField("config", "devnet").Info("Using devnet protocol parameters")
		params.UseDevnetConfig()
	}
	if cliCtx.IsSet(cmd.RegistrarConfigFileFlag.Name) {
		params.LoadProtocolConfigFile(cliCtx.String(cmd.RegistrarConfigFileFlag.Name))
	}

	registry := runtime.NewServiceRegistry()
	ctx, cancel := context.WithCancel(cliCtx.Context)
	node := &RegistrarNode{
		cliCtx:           cliCtx,
		ctx:              ctx,
		cancel:           cancel,
		services:         registry,
		stop:             make(chan struct{}),
		accountStateFeed: new(event.Feed),
	}

	if err := node.startDB(cliCtx); err != nil {
		return nil, err
	}

	verifier, err := node.registerVerificationService()
	if err != nil {
		return nil, err
	}
	node.admin = admin.NewProcessor(&admin.Config{
		Database: node.db,
		Verifier: verifier,
	})

	if err := node.registerSchedulerService(cliCtx); err != nil {
		return nil, err
	}
	if err := node.registerNotifierService(cliCtx); err != nil {
		return nil, err
	}
	if !cliCtx.Bool(cmd.DisableMonitoringFlag.Name) {
		if err := node.registerPrometheusService(cliCtx); err != nil {
			return nil, err
		}
	}

	return node, nil
}

// AccountStateFeed returns the shared feed the notifier publishes account
// states on.
func (n *RegistrarNode) AccountStateFeed() *event.Feed {
	return n.accountStateFeed
}

// Admin returns the operator command processor wired to this node's
// services.
func (n *RegistrarNode) Admin() *admin.Processor {
	return n.admin
}

// Start the registrar node and kicks off every registered service.
func (n *RegistrarNode) Start() {
	n.lock.Lock()

	log.WithFields(logrus.Fields{
		"version": version.GetVersion(),
	}).Info("Starting registrar node")

	n.services.StartAll()

	stop := n.stop
	n.lock.Unlock()

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		log.Info("Got interrupt, shutting down...")
		debug.Exit(n.cliCtx) // Ensure trace and CPU profile data are flushed.
		go n.Close()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.WithField("times", i-1).Info("Already shutting down, interrupt more to panic")
			}
		}
		panic("Panic closing the registrar node")
	}()

	// Wait for stop channel to be closed.
	<-stop
}

// Close handles graceful shutdown of the system.
func (n *RegistrarNode) Close() {
	n.lock.Lock()
	defer n.lock.Unlock()

	log.Info("Stopping registrar node")
	n.services.StopAll()
	if err := n.db.Close(); err != nil {
		log.Errorf("Failed to close database: %v", err)
	}
	n.cancel()
	close(n.stop)
}

func (n *RegistrarNode) startDB(cliCtx *cli.Context) error {
	baseDir := cliCtx.String(cmd.DataDirFlag.Name)
	dbPath := filepath.Join(baseDir, kv.RegistrarDbDirName)
	clearDB := cliCtx.Bool(cmd.ClearDB.Name)
	forceClearDB := cliCtx.Bool(cmd.ForceClearDB.Name)

	log.WithField("database-path", dbPath).Info("Checking DB")

	d, err := kv.NewKVStore(n.ctx, dbPath)
	if err != nil {
		return err
	}
	clearDBConfirmed := false
	if clearDB && !forceClearDB {
		actionText := "This will delete your registrar database stored in your data directory. " +
			"Pending judgement states and the event log will be removed - do you want to proceed? (Y/N)"
		deniedText := "Database will not be deleted. No changes have been made."
		clearDBConfirmed, err = cmd.ConfirmAction(actionText, deniedText)
		if err != nil {
			return err
		}
	}
	if clearDBConfirmed || forceClearDB {
		log.Warning("Removing database")
		if err := d.Close(); err != nil {
			return errors.Wrap(err, "could not close db prior to clearing")
		}
		if err := d.ClearDB(); err != nil {
			return errors.Wrap(err, "could not clear database")
		}
		d, err = kv.NewKVStore(n.ctx, dbPath)
		if err != nil {
			return errors.Wrap(err, "could not create new database")
		}
	}

	if size, err := d.DatabaseFileSize(); err == nil {
		log.WithField("size", humanize.Bytes(size)).Info("Database file")
	}

	n.db = d
	return nil
}

func (n *RegistrarNode) registerVerificationService() (*verification.Service, error) {
	svc := verification.New(n.ctx, &verification.Config{
		Database: n.db,
	})
	return svc, n.services.RegisterService(svc)
}

func (n *RegistrarNode) registerSchedulerService(cliCtx *cli.Context) error {
	svc := scheduler.New(n.ctx, &scheduler.Config{
		Database:        n.db,
		ReclaimInterval: cliCtx.Duration(cmd.ReclaimIntervalFlag.Name),
	})
	return n.services.RegisterService(svc)
}

func (n *RegistrarNode) registerNotifierService(cliCtx *cli.Context) error {
	svc := notifier.New(n.ctx, &notifier.Config{
		Database:     n.db,
		Feed:         n.accountStateFeed,
		PollInterval: cliCtx.Duration(cmd.NotifierPollIntervalFlag.Name),
	})
	return n.services.RegisterService(svc)
}

func (n *RegistrarNode) registerPrometheusService(cliCtx *cli.Context) error {
	svc := prometheus.NewService(
		fmt.Sprintf("%s:%d", cliCtx.String(cmd.MonitoringHostFlag.Name), cliCtx.Int(cmd.MonitoringPortFlag.Name)),
		n.services,
	)
	logrus.AddHook(prometheus.NewLogrusCollector())
	return n.services.RegisterService(svc)
}
