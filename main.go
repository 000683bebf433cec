package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"wheely/config"
	"wheely/identity"
	"wheely/model"
	"wheely/pipeline"
	"wheely/query"
	"wheely/storage"
	"wheely/ui"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

var (
	// errCancelled means the user backed out of a startup prompt
	errCancelled = errors.New("cancelled")
	// errReported means the user has already seen the error in a modal
	errReported = errors.New("reported")
)

func main() {
	// Skip the welcome screen when the data directory comes from the environment
	isFirstRun := !config.FileExists(config.GetSettingsFilePath()) && os.Getenv("WHEELY_DATA_DIR") == ""

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	config.InitDebugLog(cfg.DataDir())
	if config.DebugLog != nil {
		config.DebugLog.Printf("Wheely %s (%s) starting, data dir %s", Version, License, cfg.DataDir())
	}

	dataDir := cfg.DataDir()

	// One writer per data directory
	lock := storage.NewInstanceLock(dataDir)
	isLocked, runningPID, err := lock.Check()
	if err != nil {
		fmt.Printf("Failed to check instance lock: %v\n", err)
		os.Exit(1)
	}
	if isLocked {
		finalModel, err := tea.NewProgram(ui.NewInstanceLockedModal(runningPID, lock.Path()), tea.WithAltScreen()).Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if m, ok := finalModel.(ui.InstanceLockedModal); !ok || !m.ForceDelete() {
			os.Exit(0)
		}
		if err := lock.Release(); err != nil {
			fmt.Printf("Failed to delete lock file: %v\n", err)
			os.Exit(1)
		}
	}

	if err := lock.Acquire(); err != nil {
		fmt.Printf("Failed to lock data directory: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := lock.Release(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: failed to release instance lock: %v", err)
		}
	}()

	if err := run(cfg, isFirstRun); err != nil {
		if errors.Is(err, errCancelled) {
			return
		}
		if !errors.Is(err, errReported) {
			fmt.Printf("Error running wheely: %v\n", err)
		}
		_ = lock.Release()
		os.Exit(1)
	}
}

func run(cfg *config.Config, isFirstRun bool) error {
	dataDir := cfg.DataDir()

	user, err := loadUser(dataDir, isFirstRun)
	if err != nil {
		return err
	}

	chatStore := openChatStore(cfg.StorageBackend, dataDir)
	defer chatStore.Close()

	store := model.NewStore(chatStore, identity.StorageKey(user))

	backend, err := newBackend(cfg)
	if err != nil {
		if errors.Is(err, errCancelled) {
			return err
		}
		showStartupError("Query backend unavailable", err)
		return errReported
	}

	timeout := time.Duration(cfg.QueryTimeout) * time.Second
	pipe := pipeline.New(store, backend, user, pipeline.WithTimeout(timeout))

	keys, err := config.LoadKeybindings(dataDir)
	if err != nil {
		fmt.Printf("Warning: %v, using default keybindings\n", err)
		keys = config.DefaultKeybindings()
	}
	if ok, warning := keys.Validate(); !ok {
		fmt.Printf("Invalid keybindings (%s), using defaults\n", warning)
		keys = config.DefaultKeybindings()
	} else if warning != "" && config.DebugLog != nil {
		config.DebugLog.Printf("Keybindings: %s", warning)
	}

	p := tea.NewProgram(
		ui.NewAppView(store, pipe, user, keys, ui.WithTypewriter(cfg.Typewriter)),
		tea.WithAltScreen(),
	)
	_, err = p.Run()
	return err
}

// showStartupError blocks on an error modal until the user dismisses it
func showStartupError(title string, err error) {
	if _, runErr := tea.NewProgram(ui.NewErrorModal(title, err.Error()), tea.WithAltScreen()).Run(); runErr != nil {
		fmt.Printf("%s: %v\n", title, err)
	}
	if config.DebugLog != nil {
		config.DebugLog.Printf("%s: %v", title, err)
	}
}

// loadUser reads the user record. On first run without one the welcome
// screen offers to create it; otherwise a missing record means guest.
func loadUser(dataDir string, isFirstRun bool) (identity.User, error) {
	userPath := config.GetUserRecordPath(dataDir)
	if user, ok := identity.LoadUser(userPath); ok {
		return user, nil
	}
	if !isFirstRun {
		return identity.Guest(), nil
	}

	finalModel, err := tea.NewProgram(ui.NewWelcomeModel(userPath), tea.WithAltScreen()).Run()
	if err != nil {
		return identity.User{}, fmt.Errorf("welcome screen: %w", err)
	}
	wm, ok := finalModel.(ui.WelcomeModel)
	if !ok || !wm.IsComplete() {
		return identity.User{}, errCancelled
	}
	return wm.User(), nil
}

// openChatStore falls back to an in-memory store so that a broken database
// costs persistence, not the session
func openChatStore(backend, dataDir string) storage.ChatStore {
	kind, err := storage.ParseKind(backend)
	if err == nil {
		var chatStore storage.ChatStore
		chatStore, err = storage.NewChatStore(kind, dataDir)
		if err == nil {
			return chatStore
		}
	}

	fmt.Fprintf(os.Stderr, "Warning: chat history unavailable (%v), this session will not be saved\n", err)
	if config.DebugLog != nil {
		config.DebugLog.Printf("Warning: storage backend %q failed: %v", backend, err)
	}
	return storage.NewMemoryStore()
}

func newBackend(cfg *config.Config) (query.Backend, error) {
	backendType := query.MapBackendID(cfg.QueryBackend)

	var apiKey string
	if query.NeedsAPIKey(backendType) {
		creds, err := loadCredentials(cfg)
		if err != nil {
			return nil, err
		}
		apiKey = creds.Get(string(backendType))
		if apiKey == "" {
			return nil, fmt.Errorf("no API key stored for %s backend (add it under [credentials] in %s/credentials.toml)", backendType, cfg.DataDir())
		}
	}

	httpClient := &http.Client{Timeout: time.Duration(cfg.QueryTimeout) * time.Second}

	backend, err := query.NewBackend(query.Config{
		Type:   backendType,
		URL:    cfg.QueryURL,
		Model:  cfg.QueryModel,
		APIKey: apiKey,
	}, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", backendType, err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("Query backend: %s (%s)", backend.Name(), cfg.QueryURL)
	}
	return backend, nil
}

// loadCredentials opens the API key store, asking for the SSH key
// passphrase when the key is encrypted and WHEELY_SSH_PASSPHRASE is unset
func loadCredentials(cfg *config.Config) (*config.CredentialStore, error) {
	dataDir := cfg.DataDir()
	keyPath := config.ExpandPath(cfg.SSHKeyPath)
	creds := config.NewCredentialStore(cfg.Security, keyPath)

	if cfg.Security != config.SecuritySSHKey {
		if err := creds.Load(dataDir); err != nil {
			return nil, fmt.Errorf("failed to load credentials: %w", err)
		}
		return creds, nil
	}

	if passphrase := os.Getenv("WHEELY_SSH_PASSPHRASE"); passphrase != "" {
		if err := creds.Unlock(dataDir, passphrase); err != nil {
			return nil, fmt.Errorf("failed to load credentials: %w", err)
		}
		return creds, nil
	}

	encrypted, err := config.IsSSHKeyEncrypted(keyPath)
	if err != nil {
		return nil, err
	}
	if !encrypted {
		if err := creds.Load(dataDir); err != nil {
			return nil, fmt.Errorf("failed to load credentials: %w", err)
		}
		return creds, nil
	}

	for attempt := 1; attempt <= ui.MaxPassphraseAttempts; attempt++ {
		prompt := ui.NewPassphraseModal(keyPath, string(query.MapBackendID(cfg.QueryBackend)), attempt)
		finalModel, err := tea.NewProgram(prompt, tea.WithAltScreen()).Run()
		if err != nil {
			return nil, err
		}
		pm, ok := finalModel.(ui.PassphraseModal)
		if !ok || pm.Cancelled() {
			return nil, errCancelled
		}
		if err := creds.Unlock(dataDir, pm.Passphrase()); err == nil {
			return creds, nil
		}
	}
	return nil, fmt.Errorf("could not unlock %s after %d attempts", keyPath, ui.MaxPassphraseAttempts)
}
