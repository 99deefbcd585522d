package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tile-scan/internal/canvas"
	"tile-scan/internal/logger"
)

// Bot：oracle 用到的 BotAPI 子集，便于测试替换
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

const (
	cbDone = "done"
	cbNone = "none"
	cbQuit = "quit"
)

// Telegram：把画布以图片发送到指定会话，通过内联键盘选择单元
// 约束：只接受 ChatID 会话中针对本次消息的回调；每个回调都会应答，避免客户端一直转圈
type Telegram struct {
	Bot     Bot
	ChatID  int64
	Updates <-chan tgbotapi.Update
	Render  canvas.RenderOptions
}

func NewTelegram(bot Bot, chatID int64, updates <-chan tgbotapi.Update, scale float64) *Telegram {
	return &Telegram{Bot: bot, ChatID: chatID, Updates: updates, Render: canvas.RenderOptions{Scale: scale, Gutter: 4}}
}

func (t *Telegram) Select(ctx context.Context, cv *canvas.Canvas, meta Meta) (Selection, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, cv.Render(t.Render)); err != nil {
		return nil, err
	}
	photo := tgbotapi.NewPhoto(t.ChatID, tgbotapi.FileBytes{Name: fmt.Sprintf("candidate_%d.png", meta.ID), Bytes: buf.Bytes()})
	photo.Caption = caption(cv, meta)
	photo.ReplyMarkup = keyboard(nil)
	msg, err := t.Bot.Send(photo)
	if err != nil {
		return nil, fmt.Errorf("telegram: send canvas: %w", err)
	}
	l := logger.Component("oracle").With("candidate_id", meta.ID, "message_id", msg.MessageID)
	l.Debug("telegram_canvas_sent")

	sel := Selection{}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case upd, ok := <-t.Updates:
			if !ok {
				return nil, errors.New("telegram: updates channel closed")
			}
			cb := upd.CallbackQuery
			if cb == nil || cb.Message == nil || cb.Message.Chat == nil {
				continue
			}
			if cb.Message.Chat.ID != t.ChatID || cb.Message.MessageID != msg.MessageID {
				_, _ = t.Bot.Request(tgbotapi.NewCallback(cb.ID, "expired"))
				continue
			}
			_, _ = t.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack
			switch cb.Data {
			case cbDone:
				t.closeKeyboard(msg.MessageID)
				l.Info("telegram_selection_done", "cells", len(sel))
				return Normalize(sel)
			case cbNone:
				t.closeKeyboard(msg.MessageID)
				return Selection{}, nil
			case cbQuit:
				t.closeKeyboard(msg.MessageID)
				return nil, ErrQuit
			}
			cell, ok := parseCellData(cb.Data)
			if !ok {
				l.Warn("telegram_callback_unknown", "data", cb.Data)
				continue
			}
			sel = sel.toggle(cell)
			edit := tgbotapi.NewEditMessageReplyMarkup(t.ChatID, msg.MessageID, keyboard(sel))
			if _, err := t.Bot.Send(edit); err != nil {
				l.Warn("telegram_keyboard_update_error", "err", err)
			}
		}
	}
}

func (t *Telegram) closeKeyboard(messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(t.ChatID, messageID, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	_, _ = t.Bot.Send(edit)
}

func caption(cv *canvas.Canvas, meta Meta) string {
	return fmt.Sprintf("candidate %d, tile %s, confirmed so far %d", meta.ID, cv.Center, meta.ConfirmedSoFar)
}

func cellData(c canvas.Cell) string {
	return "cell:" + strconv.Itoa(c.Row) + ":" + strconv.Itoa(c.Col)
}

func parseCellData(s string) (canvas.Cell, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] != "cell" {
		return canvas.Cell{}, false
	}
	r, err1 := strconv.Atoi(parts[1])
	c, err2 := strconv.Atoi(parts[2])
	cell := canvas.Cell{Row: r, Col: c}
	if err1 != nil || err2 != nil || !cell.Valid() {
		return canvas.Cell{}, false
	}
	return cell, true
}

// keyboard：3×3 单元按钮（选中的带 ✅）加 完成 / 无 / 退出
func keyboard(sel Selection) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, canvas.Size+1)
	for r := 0; r < canvas.Size; r++ {
		var row []tgbotapi.InlineKeyboardButton
		for c := 0; c < canvas.Size; c++ {
			cell := canvas.Cell{Row: r, Col: c}
			label := fmt.Sprintf("%d,%d", r, c)
			if sel.Contains(cell) {
				label = "✅ " + label
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cellData(cell)))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Done", cbDone),
		tgbotapi.NewInlineKeyboardButtonData("None", cbNone),
		tgbotapi.NewInlineKeyboardButtonData("Quit", cbQuit),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
