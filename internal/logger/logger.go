package logger

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LoggerService owns the process log file: it rotates by size, zips
// expired files away and exposes the audit helpers the other services
// use. It runs as the first service in the sequence so everything after
// it logs into the managed file.
type LoggerService struct {
	Config        map[string]interface{}
	file          *os.File
	mu            sync.Mutex
	stopCh        chan struct{}
	wg            sync.WaitGroup
	currentLog    string
	maxFileBytes  int64
	retentionDays int
	folderPath    string
	teeStdout     bool
	lastSweep     time.Time
}

func NewLoggerService(config map[string]interface{}) *LoggerService {
	maxMB := intOption(config, "max_file_mb", 25)
	retention := intOption(config, "retention_days", 30)
	folder, _ := config["folder_path"].(string)
	if folder == "" {
		folder = "./logs"
	}
	tee, _ := config["also_stdout"].(bool)

	return &LoggerService{
		Config:        config,
		stopCh:        make(chan struct{}),
		maxFileBytes:  int64(maxMB) * 1024 * 1024,
		retentionDays: retention,
		folderPath:    folder,
		teeStdout:     tee,
	}
}

// intOption reads an integer knob that YAML may have decoded as either
// int or float64.
func intOption(config map[string]interface{}, key string, def int) int {
	if v, ok := config[key].(int); ok && v > 0 {
		return v
	}
	if f, ok := config[key].(float64); ok && f > 0 {
		return int(f)
	}
	return def
}

func (l *LoggerService) Name() string {
	return "Logger"
}

func (l *LoggerService) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.folderPath, 0755); err != nil {
		return err
	}
	if err := l.openNewFile(); err != nil {
		return err
	}
	log.Println("[LoggerService] Started, writing to", l.currentLog)

	l.wg.Add(1)
	go l.worker()
	return nil
}

func (l *LoggerService) Stop() error {
	close(l.stopCh)
	l.wg.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		log.Println("[LoggerService] Stopping")
		return l.file.Close()
	}
	return nil
}

// openNewFile swaps the log target; callers hold l.mu.
func (l *LoggerService) openNewFile() error {
	name := filepath.Join(l.folderPath, fmt.Sprintf("recon_%s.log", time.Now().Format("20060102_150405")))
	file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if l.file != nil {
		l.file.Close()
	}
	l.file = file
	l.currentLog = name
	if l.teeStdout {
		log.SetOutput(io.MultiWriter(os.Stdout, file))
	} else {
		log.SetOutput(file)
	}
	return nil
}

func (l *LoggerService) worker() {
	defer l.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case now := <-ticker.C:
			l.rotateIfNeeded()
			if now.Sub(l.lastSweep) >= 24*time.Hour {
				l.lastSweep = now
				l.archiveExpiredLogs()
			}
		}
	}
}

func (l *LoggerService) rotateIfNeeded() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil || l.maxFileBytes <= 0 {
		return
	}
	info, err := l.file.Stat()
	if err != nil || info.Size() < l.maxFileBytes {
		return
	}
	if err := l.openNewFile(); err != nil {
		return
	}
	log.Println("[LoggerService] Rotated log file to", l.currentLog)
}

// archiveExpiredLogs zips log files past retention into a monthly
// archive and deletes the originals. The active file is never older than
// the cutoff, so it is safe from the sweep.
func (l *LoggerService) archiveExpiredLogs() {
	if l.retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -l.retentionDays)
	entries, err := os.ReadDir(l.folderPath)
	if err != nil {
		return
	}

	var expired []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".log" {
			continue
		}
		full := filepath.Join(l.folderPath, e.Name())
		info, err := os.Stat(full)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		expired = append(expired, full)
	}
	if len(expired) == 0 {
		return
	}

	zipName := filepath.Join(l.folderPath, fmt.Sprintf("recon_logs_%s.zip", time.Now().Format("200601")))
	zipFile, err := os.OpenFile(zipName, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer zipFile.Close()
	zw := zip.NewWriter(zipFile)
	defer zw.Close()

	for _, full := range expired {
		w, err := zw.Create(filepath.Base(full))
		if err != nil {
			continue
		}
		src, err := os.Open(full)
		if err != nil {
			continue
		}
		io.Copy(w, src)
		src.Close()
		os.Remove(full)
	}
}

// LogAudit records an operator-relevant event, one line, greppable.
func (l *LoggerService) LogAudit(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	log.Printf("[AUDIT] %s", msg)
}

// LogRun records the lifecycle of one reconciliation run.
func (l *LoggerService) LogRun(runID, filename, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	log.Printf("[RUN %s] %s: %s", runID, filename, msg)
}

var GlobalLogger *LoggerService

func SetGlobalLogger(l *LoggerService) {
	GlobalLogger = l
}
