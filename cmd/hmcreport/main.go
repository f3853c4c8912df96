/*
 * Copyright 2025 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/powerfleet/hmcreport/buildinfo"
	"github.com/powerfleet/hmcreport/collector"
	"github.com/powerfleet/hmcreport/common"
	"github.com/powerfleet/hmcreport/config"
	"github.com/powerfleet/hmcreport/http/handlers"
	"github.com/powerfleet/hmcreport/inventory"
	"github.com/powerfleet/hmcreport/logger"
	"github.com/powerfleet/hmcreport/middleware/logging"
	"github.com/powerfleet/hmcreport/middleware/muxprom"
	"github.com/powerfleet/hmcreport/persist"
	"github.com/powerfleet/hmcreport/render"
	hmc_vault "github.com/powerfleet/hmcreport/vault"
)

const app = "hmcreport"

var (
	a                  = kingpin.New(app, "Power systems infrastructure inventory collector")
	inventoryPath      = a.Flag("inventory", "path to the HMC inventory file").Default("inventory.yml").Envar("HMC_INVENTORY").String()
	username           = a.Flag("user", "HMC static username").Default("").Envar("HMC_USERNAME").String()
	password           = a.Flag("password", "HMC static password").Default("").Envar("HMC_PASSWORD").String()
	hmcTimeout         = a.Flag("timeout", "per-HMC collection timeout").Default("90s").Envar("HMC_TIMEOUT").Duration()
	insecureSkipVerify = a.Flag("insecure-skip-verify", "Skip TLS verification").Default("false").Envar("INSECURE_SKIP_VERIFY").Bool()
	concurrency        = a.Flag("concurrency", "how many HMCs are collected at once").Default("4").Envar("HMC_CONCURRENCY").Int()
	outputFormats      = a.Flag("output.formats", "comma separated list of output formats, overrides the inventory file").Default("").Envar("OUTPUT_FORMATS").String()
	outputDir          = a.Flag("output.dir", "directory where report files are written").Default("./reports").Envar("OUTPUT_DIR").String()
	serve              = a.Flag("serve", "run as an HTTP service instead of a one-shot collection").Default("false").Envar("HMCREPORT_SERVE").Bool()
	servicePort        = a.Flag("port", "service port").Default("10035").Envar("HMCREPORT_PORT").String()
	logLevel           = a.Flag("log.level", "log level verbosity").PlaceHolder("[debug|info|warn|error]").Default("info").Envar("LOG_LEVEL").String()
	logMethod          = a.Flag("log.method", "alternative method for logging in addition to stdout").PlaceHolder("[file|vector]").Default("").Envar("LOG_METHOD").String()
	logFilePath        = a.Flag("log.file-path", "directory path where log files are written if log-method is file").Default("/var/log/hmcreport").Envar("LOG_FILE_PATH").String()
	logFileMaxSize     = a.Flag("log.file-max-size", "max file size in megabytes if log-method is file").Default("256").Envar("LOG_FILE_MAX_SIZE").String()
	logFileMaxBackups  = a.Flag("log.file-max-backups", "max file backups before they are rotated if log-method is file").Default("1").Envar("LOG_FILE_MAX_BACKUPS").String()
	logFileMaxAge      = a.Flag("log.file-max-age", "max file age in days before they are rotated if log-method is file").Default("1").Envar("LOG_FILE_MAX_AGE").String()
	vectorEndpoint     = a.Flag("vector.endpoint", "vector endpoint to send structured json logs to").Default("http://0.0.0.0:4444").Envar("VECTOR_ENDPOINT").String()
	vaultAddr          = a.Flag("vault.addr", "Vault instance address to get HMC credentials from").Default("https://vault.com").Envar("VAULT_ADDRESS").String()
	vaultRoleId        = a.Flag("vault.role-id", "Vault Role ID for AppRole").Default("").Envar("VAULT_ROLE_ID").String()
	vaultSecretId      = a.Flag("vault.secret-id", "Vault Secret ID for AppRole").Default("").Envar("VAULT_SECRET_ID").String()
	s3Endpoint         = a.Flag("s3.endpoint", "S3-compatible endpoint to upload reports to").Default("").Envar("S3_ENDPOINT").String()
	s3Bucket           = a.Flag("s3.bucket", "S3 bucket reports are uploaded into").Default("").Envar("S3_BUCKET").String()
	s3Prefix           = a.Flag("s3.prefix", "key prefix for uploaded reports").Default("").Envar("S3_PREFIX").String()
	s3AccessKey        = a.Flag("s3.access-key", "S3 access key").Default("").Envar("S3_ACCESS_KEY").String()
	s3SecretKey        = a.Flag("s3.secret-key", "S3 secret key").Default("").Envar("S3_SECRET_KEY").String()
	s3UseSSL           = a.Flag("s3.use-ssl", "use TLS for the S3 endpoint").Default("true").Envar("S3_USE_SSL").Bool()
	gitRepoPath        = a.Flag("git.repo", "path to a local git working copy reports are committed into").Default("").Envar("GIT_REPO").String()
	gitSubdir          = a.Flag("git.subdir", "subdirectory inside the git repo for report files").Default("").Envar("GIT_SUBDIR").String()
	gitPush            = a.Flag("git.push", "push the report commit to the remote").Default("false").Envar("GIT_PUSH").Bool()
	gitRemote          = a.Flag("git.remote", "git remote to push report commits to").Default("origin").Envar("GIT_REMOTE").String()
	gitToken           = a.Flag("git.token", "token used to authenticate git pushes").Default("").Envar("GIT_TOKEN").String()
	aapURL             = a.Flag("aap.url", "Ansible Automation Platform job launch URL to post JSON reports to").Default("").Envar("AAP_URL").String()
	aapToken           = a.Flag("aap.token", "bearer token for the AAP endpoint").Default("").Envar("AAP_TOKEN").String()
	_                  = common.CredentialProf(a.Flag("credentials.profiles",
		`profile(s) with all necessary parameters to obtain HMC credentials from secrets backend, i.e.
  --credentials.profiles="
    profiles:
      - name: profile1
        mountPath: "kv2"
        path: "path/to/secret"
        userField: "user"
        passwordField: "password"
      ...
  "
--credentials.profiles='{"profiles":[{"name":"profile1","mountPath":"kv2","path":"path/to/secret","userField":"user","passwordField":"password"},...]}'`))

	log *zap.Logger

	vault *hmc_vault.Vault
)

var wg = sync.WaitGroup{}

func main() {
	ctx := context.Background()
	doneRenew := make(chan bool, 1)
	tokenLifecycle := make(chan bool, 1)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = ""
	}

	a.HelpFlag.Short('h')

	_, err = a.Parse(os.Args[1:])
	if err != nil {
		panic(fmt.Errorf("error parsing argument flags - %s", err.Error()))
	}

	// validate logFilePath exists and is a directory
	if *logMethod == "file" {
		fd, err := os.Stat(*logFilePath)
		if os.IsNotExist(err) {
			panic(err)
		}
		if !fd.IsDir() {
			panic(fmt.Errorf("%s is not a directory", *logFilePath))
		}
	}

	logfileMaxSize, err := strconv.Atoi(*logFileMaxSize)
	if err != nil {
		panic(fmt.Errorf("error converting arg --log.file-max-size to int - %s", err.Error()))
	}

	logfileMaxBackups, err := strconv.Atoi(*logFileMaxBackups)
	if err != nil {
		panic(fmt.Errorf("error converting arg --log.file-max-backups to int - %s", err.Error()))
	}

	logfileMaxAge, err := strconv.Atoi(*logFileMaxAge)
	if err != nil {
		panic(fmt.Errorf("error converting arg --log.file-max-age to int - %s", err.Error()))
	}

	config.NewConfig(&config.Config{
		HMCScheme:   "https",
		HMCTimeout:  *hmcTimeout,
		SSLVerify:   !*insecureSkipVerify,
		User:        *username,
		Pass:        *password,
		Concurrency: *concurrency,
	})

	logConfig := logger.LoggerConfig{
		LogLevel:  *logLevel,
		LogMethod: *logMethod,
		LogFile: logger.LogFile{
			Path:       *logFilePath,
			MaxSize:    logfileMaxSize,
			MaxBackups: logfileMaxBackups,
			MaxAge:     logfileMaxAge,
		},
		VectorEndpoint: *vectorEndpoint,
	}

	err = logger.Initialize(app, hostname, logConfig)
	if err != nil {
		panic(fmt.Errorf("error initializing logger - log_method=%s vector_endpoint=%s log_file_path=%s log_file_max_size=%d log_file_max_backups=%d log_file_max_age=%d - err=%s",
			*logMethod, *vectorEndpoint, *logFilePath, logfileMaxSize, logfileMaxBackups, logfileMaxAge, err.Error()))
	}

	log = zap.L()
	defer logger.Flush()

	if *logMethod == "vector" {
		log.Info("successfully initialized logger", zap.String("log_method", *logMethod),
			zap.String("vector_endpoint", *vectorEndpoint))
	} else if *logMethod == "file" {
		log.Info("successfully initialized logger", zap.String("log_method", *logMethod),
			zap.String("log_file_path", *logFilePath),
			zap.Int("log_file_max_size", logfileMaxSize),
			zap.Int("log_file_max_backups", logfileMaxBackups),
			zap.Int("log_file_max_age", logfileMaxAge))
	}

	// configure vault client if vaultRoleId & vaultSecretId are set
	if *vaultRoleId != "" && *vaultSecretId != "" {
		var err error
		vault, err = hmc_vault.NewVaultAppRoleClient(
			ctx,
			hmc_vault.Parameters{
				Address:         *vaultAddr,
				ApproleRoleID:   *vaultRoleId,
				ApproleSecretID: *vaultSecretId,
			},
		)
		if err != nil {
			log.Error("failed initializing vault client", zap.Error(err),
				zap.String("vault_address", *vaultAddr),
				zap.String("vault_role_id", *vaultRoleId))
		} else {
			// we add this here so we can update credentials once we detect they are rotated
			common.HMCCreds.Vault = vault

			// start go routine to continuously renew vault token
			wg.Add(1)
			go vault.RenewToken(ctx, doneRenew, tokenLifecycle, &wg)
		}
	}

	inv, err := inventory.Load(*inventoryPath)
	if err != nil {
		log.Error("failed loading inventory", zap.Error(err), zap.String("inventory", *inventoryPath))
		os.Exit(1)
	}

	formatNames := inv.Formats
	if *outputFormats != "" {
		formatNames = strings.Split(*outputFormats, ",")
	}
	formats, err := render.ParseFormats(formatNames)
	if err != nil {
		log.Error("failed parsing output formats", zap.Error(err))
		os.Exit(1)
	}

	dispatcher, err := buildDispatcher()
	if err != nil {
		log.Error("failed configuring report destinations", zap.Error(err))
		os.Exit(1)
	}

	if !*serve {
		summary := collector.Run(ctx, inv, formats, dispatcher)
		for _, o := range summary.Outcomes {
			if o.Err != nil {
				log.Error("collection failed", zap.String("hmc", o.HMC.Name),
					zap.String("trace_id", o.TraceID), zap.Error(o.Err))
			}
		}
		log.Info("run finished",
			zap.Int("hmcs", len(inv.HMCs)),
			zap.Int("usable", summary.Usable),
			zap.Int("failed", summary.Failed))

		// the run only fails outright when not a single HMC produced a
		// report that reached a destination
		if summary.Usable == 0 {
			logger.Flush()
			if vault != nil && vault.IsLoggedIn() {
				tokenLifecycle <- true
			}
			doneRenew <- true
			os.Exit(1)
		}
		if vault != nil && vault.IsLoggedIn() {
			tokenLifecycle <- true
		}
		doneRenew <- true
		return
	}

	collectConfig := &handlers.CollectConfig{
		Inventory:  inv,
		Formats:    formats,
		Dispatcher: dispatcher,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /info", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(buildinfo.Info)
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /collect", handlers.CollectHandler(collectConfig))

	tmplIndex := template.Must(template.New("index").Parse(indexTmpl))
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		err := tmplIndex.Execute(w, buildinfo.Info)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	mux.HandleFunc("GET /verbosity", logger.Verbosity)
	mux.HandleFunc("PUT /verbosity", logger.SetVerbosity)

	instrumentation := muxprom.NewDefaultInstrumentation()
	wrappedmux := logging.LoggingHandler(instrumentation.Middleware(mux))

	srv := &http.Server{
		Addr:    ":" + *servicePort,
		Handler: wrappedmux,
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	listener, err := net.Listen("tcp4", ":"+*servicePort)
	if err != nil {
		log.Error("starting "+app+" service failed", zap.Error(err))
		signals <- syscall.SIGTERM
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Error("http server received an error", zap.Error(err))
				signals <- syscall.SIGTERM
			}
		}()

		log.Info("started " + app + " service")
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := <-signals
		log.Info(s.String() + " signal caught, stopping app")
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("http server shutdown failed", zap.Error(err))
		}

		if vault != nil && vault.IsLoggedIn() {
			// send signal to stop token watcher if we were able to successfully login
			tokenLifecycle <- true
		}
		doneRenew <- true
	}()

	wg.Wait()
}

// buildDispatcher assembles the destination set from the command line. The
// local directory is always present; the rest are opt-in.
func buildDispatcher() (*persist.Dispatcher, error) {
	var dests []persist.Destination

	local, err := persist.NewLocalDir(*outputDir)
	if err != nil {
		return nil, fmt.Errorf("local output directory %s - %w", *outputDir, err)
	}
	dests = append(dests, local)

	if *s3Endpoint != "" && *s3Bucket != "" {
		s3, err := persist.NewS3(
			persist.WithS3Endpoint(*s3Endpoint),
			persist.WithS3Bucket(*s3Bucket),
			persist.WithS3Prefix(*s3Prefix),
			persist.WithS3Credentials(*s3AccessKey, *s3SecretKey),
			persist.WithS3SSL(*s3UseSSL),
		)
		if err != nil {
			return nil, fmt.Errorf("s3 destination - %w", err)
		}
		dests = append(dests, s3)
	}

	if *gitRepoPath != "" {
		opts := []persist.GitOpt{persist.WithGitSubdir(*gitSubdir)}
		if *gitPush {
			opts = append(opts, persist.WithGitPush(*gitRemote, *gitToken))
		}
		git, err := persist.NewGitRepo(*gitRepoPath, opts...)
		if err != nil {
			return nil, fmt.Errorf("git destination - %w", err)
		}
		dests = append(dests, git)
	}

	if *aapURL != "" {
		dests = append(dests, persist.NewAAP(*aapURL, *aapToken, *insecureSkipVerify, *hmcTimeout))
	}

	return persist.NewDispatcher(dests...), nil
}
