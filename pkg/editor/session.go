// Package editor は描画を伴わないステージ編集セッションを提供する
//
// 配置の流れ:
//
//	UI上か → グリッドに吸着 → 範囲内か → (図形制限) → 占有されていないか → 種類・レイヤーの範囲 → 追加
//
// どこかで拒否された場合、ステージは変更されない。
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/zurustar/sheepedit/pkg/config"
	"github.com/zurustar/sheepedit/pkg/grid"
	"github.com/zurustar/sheepedit/pkg/level"
	"github.com/zurustar/sheepedit/pkg/polygon"
	"github.com/zurustar/sheepedit/pkg/storage"
	"github.com/zurustar/sheepedit/pkg/validator"
)

var (
	// ErrPointerOverUI はポインターがUI上にあるため操作を無視した
	ErrPointerOverUI = errors.New("pointer is over the UI")
	// ErrOutOfBounds は配置位置が領域外
	ErrOutOfBounds = errors.New("position is out of bounds")
	// ErrOccupied は同じレイヤーの同じ位置にカードがある
	ErrOccupied = errors.New("position is occupied")
	// ErrOutsideShape はレイヤーの有効な図形の外
	ErrOutsideShape = errors.New("position is outside every active shape")
	// ErrNoCard は削除対象のカードがない
	ErrNoCard = errors.New("no card at position")
	// ErrInvalidArgument はカードの種類やレイヤーが範囲外
	ErrInvalidArgument = grid.ErrInvalidArgument
)

// Session は1つのステージを編集する
type Session struct {
	level    *level.Level
	store    *storage.Store
	settings config.Settings
	log      *slog.Logger
	dirty    bool
}

// NewSession は編集セッションを作成する
func NewSession(l *level.Level, store *storage.Store, settings config.Settings, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{level: l, store: store, settings: settings, log: log}
}

// Level は編集中のステージを返す
func (s *Session) Level() *level.Level {
	return s.level
}

// Settings はセッションの設定を返す
func (s *Session) Settings() config.Settings {
	return s.settings
}

// CardCount はカード数を返す
func (s *Session) CardCount() int {
	return s.level.CardCount()
}

// ShapeCount は不規則図形の数を返す
func (s *Session) ShapeCount() int {
	return s.level.ShapeCount()
}

// Dirty は最後の保存以降に変更があったかを返す
func (s *Session) Dirty() bool {
	return s.dirty
}

// Place はワールド座標にカードを配置し、追加したカードを返す
func (s *Session) Place(ui *UIState, pos level.Vec2, cardType, layer int) (level.Card, error) {
	if ui.PointerOverUI() {
		return level.Card{}, ErrPointerOverUI
	}

	l := s.level
	if cardType < 0 || cardType >= s.settings.MaxCardTypes {
		return level.Card{}, fmt.Errorf("%w: card type %d not in [0, %d)", ErrInvalidArgument, cardType, s.settings.MaxCardTypes)
	}
	if layer < 0 || layer >= l.TotalLayers {
		return level.Card{}, fmt.Errorf("%w: layer %d not in [0, %d)", ErrInvalidArgument, layer, l.TotalLayers)
	}

	snapped, err := grid.SnapToGrid(pos, l.CardSpacing)
	if err != nil {
		return level.Card{}, err
	}

	if !grid.IsInBounds(snapped, l.ActualAreaSize()) {
		return level.Card{}, fmt.Errorf("%w: %v", ErrOutOfBounds, snapped)
	}
	if s.settings.RestrictToShapes && !polygon.IsInAnyActiveShapeForLayer(snapped, layer, l.Shapes) {
		return level.Card{}, fmt.Errorf("%w: layer %d at %v", ErrOutsideShape, layer, snapped)
	}
	if grid.IsOccupied(snapped, layer, l.Cards, l.CardSize) {
		return level.Card{}, fmt.Errorf("%w: layer %d at %v", ErrOccupied, layer, snapped)
	}
	card := level.Card{
		ID:        l.NextCardID(),
		Type:      cardType,
		Position:  snapped,
		Layer:     layer,
		IsVisible: true,
	}
	l.AddCard(card)
	s.log.Debug("Card placed", "levelId", l.ID, "cardId", card.ID, "type", cardType, "layer", layer, "position", snapped.String())

	if err := s.changed(); err != nil {
		return card, err
	}
	return card, nil
}

// Delete はワールド座標に最も近いカード（cardSize/2 未満、レイヤーを問わない）を削除する
func (s *Session) Delete(ui *UIState, pos level.Vec2) (level.Card, error) {
	if ui.PointerOverUI() {
		return level.Card{}, ErrPointerOverUI
	}

	card, ok := grid.NearestCard(pos, s.level.Cards, s.level.CardSize)
	if !ok {
		return level.Card{}, fmt.Errorf("%w: %v", ErrNoCard, pos)
	}
	s.level.RemoveCard(card.ID)
	s.log.Debug("Card deleted", "levelId", s.level.ID, "cardId", card.ID)

	return card, s.changed()
}

// AddPresetShape はプリセット図形をレイヤーに追加する
// rng が nil の場合は頂点をずらさない
func (s *Session) AddPresetShape(kind level.PresetKind, layer int, rng *rand.Rand) (level.IrregularShape, error) {
	if layer < 0 || layer >= s.level.TotalLayers {
		return level.IrregularShape{}, fmt.Errorf("%w: layer %d not in [0, %d)", ErrInvalidArgument, layer, s.level.TotalLayers)
	}
	shape, err := level.PresetShape(kind, layer, rng)
	if err != nil {
		return level.IrregularShape{}, err
	}
	s.level.AddShape(shape)
	s.log.Debug("Shape added", "levelId", s.level.ID, "preset", kind.String(), "layer", layer, "vertices", len(shape.Vertices))
	return shape, s.changed()
}

// RemoveShape はインデックスで図形を削除する
func (s *Session) RemoveShape(index int) error {
	if !s.level.RemoveShape(index) {
		return fmt.Errorf("%w: shape index %d", ErrInvalidArgument, index)
	}
	return s.changed()
}

// ClearCards はすべてのカードを削除する
func (s *Session) ClearCards() error {
	s.level.ClearCards()
	return s.changed()
}

// NewLevel は次の空きIDで新しいステージに切り替える
func (s *Session) NewLevel() (*level.Level, error) {
	id, err := s.store.NextLevelID()
	if err != nil {
		return nil, err
	}
	s.level = level.New(id, s.settings.NewLevel)
	s.dirty = true
	s.log.Info("New level created", "levelId", id)
	return s.level, nil
}

// Load はステージを読み込んで切り替える
// 読み込めない場合は新しいステージになる
func (s *Session) Load(id int) (*level.Level, error) {
	l, err := s.store.LoadOrNew(id, s.settings.NewLevel)
	if err != nil {
		return nil, err
	}
	s.level = l
	s.dirty = false
	return l, nil
}

// Save はステージを保存する
func (s *Session) Save() (string, error) {
	path, err := s.store.Save(s.level, storage.SaveOptions{Backup: s.settings.BackupLevels})
	if err != nil {
		return "", err
	}
	s.dirty = false
	return path, nil
}

// Validate はステージを検証する
func (s *Session) Validate() *validator.ValidationResult {
	return validator.Validate(s.level)
}

// Export は設定で有効な形式でステージを書き出す
func (s *Session) Export() ([]string, error) {
	return s.store.Export(s.level, s.settings.ExportFormats())
}

func (s *Session) changed() error {
	s.dirty = true
	if !s.settings.AutoSave || s.store == nil {
		return nil
	}
	if _, err := s.Save(); err != nil {
		return fmt.Errorf("auto save: %w", err)
	}
	return nil
}
