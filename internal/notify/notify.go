// Package notify показывает пользователю короткие уведомления (аналог toast в веб-клиенте).
package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

type Level string

const (
	LevelError   Level = "error"
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
)

type Notifier interface {
	Error(msg string)
	Success(msg string)
	Info(msg string)
}

// Вывод в терминал

type console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) Notifier {
	return &console{w: w}
}

func (c *console) print(prefix string, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s %s\n", prefix, msg)
}

func (c *console) Error(msg string)   { c.print("✗", msg) }
func (c *console) Success(msg string) { c.print("✓", msg) }
func (c *console) Info(msg string)    { c.print("i", msg) }

// Запись в журнал

type zapNotifier struct {
	zaplog *zap.Logger
}

func NewZap(zaplog *zap.Logger) Notifier {
	return zapNotifier{zaplog: zaplog}
}

func (n zapNotifier) Error(msg string) {
	n.zaplog.Warn("notification", zap.String("level", string(LevelError)), zap.String("message", msg))
}

func (n zapNotifier) Success(msg string) {
	n.zaplog.Info("notification", zap.String("level", string(LevelSuccess)), zap.String("message", msg))
}

func (n zapNotifier) Info(msg string) {
	n.zaplog.Info("notification", zap.String("level", string(LevelInfo)), zap.String("message", msg))
}

// Несколько получателей

type multi []Notifier

func Multi(notifiers ...Notifier) Notifier {
	return multi(notifiers)
}

func (m multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}

func (m multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m multi) Info(msg string) {
	for _, n := range m {
		n.Info(msg)
	}
}

// Recorder запоминает уведомления, используется в тестах
type Recorder struct {
	mu       sync.Mutex
	Messages []Message
}

type Message struct {
	Level Level
	Text  string
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, Message{Level: level, Text: msg})
}

func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }
func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }

// Count число уведомлений заданного уровня
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.Messages {
		if m.Level == level {
			n++
		}
	}
	return n
}

// Last последнее уведомление; пустое, если их не было
func (r *Recorder) Last() Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return Message{}
	}
	return r.Messages[len(r.Messages)-1]
}
