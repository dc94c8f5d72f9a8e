// Package errors はseqanomaly全体のエラーハンドリングと警告システムを提供します。
// 構造化されたエラー型はcockroachdb/errorsでスタックトレースを付与して返されます。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("seqanomaly-Warning: %v\n", w)
	}
	// pkg/log が初期化時に設定する（循環importを避けるため）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はzerologの出力先が未登録の場合に使うハンドラーを差し替えます。
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc は構造化警告の出力先を登録します。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。zerologが設定されていれば構造化ログとして出力します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// UndefinedMetricWarning は評価指標が定義できない場合の警告です。
// 例: 陽性予測が一つもない状態での適合率。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject はzerolog.LogObjectMarshalerを実装します。
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning は新しいUndefinedMetricWarningを作成します。
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// MonitorFallbackWarning は学習中の監視指標が観測できず、別の指標で代替した場合の警告です。
// 例: 検証データがないため val_acc の代わりに acc を監視する。
type MonitorFallbackWarning struct {
	Wanted string
	Using  string
	Reason string
}

func (w *MonitorFallbackWarning) Error() string {
	return fmt.Sprintf("monitor '%s' unavailable (%s); falling back to '%s'", w.Wanted, w.Reason, w.Using)
}

// MarshalZerologObject はzerolog.LogObjectMarshalerを実装します。
func (w *MonitorFallbackWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("wanted", w.Wanted).
		Str("using", w.Using).
		Str("reason", w.Reason).
		Str("type", "MonitorFallbackWarning")
}

// NewMonitorFallbackWarning は新しいMonitorFallbackWarningを作成します。
func NewMonitorFallbackWarning(wanted, using, reason string) *MonitorFallbackWarning {
	return &MonitorFallbackWarning{Wanted: wanted, Using: using, Reason: reason}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未構築・未学習の状態で推論や保存を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("seqanomaly: %s: model has not been built yet. Call Train() or BuildModel() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerolog.LogObjectMarshalerを実装します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は入力の次元が期待値と異なる場合のエラーです。
// Axis は 0 がサンプル、1 が時間、2 が特徴量です。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func axisName(axis int) string {
	switch axis {
	case 0:
		return "samples"
	case 1:
		return "timesteps"
	default:
		return "features"
	}
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("seqanomaly: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, axisName(e.Axis), e.Expected, e.Got)
}

// MarshalZerologObject はzerolog.LogObjectMarshalerを実装します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName(e.Axis)).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// InputShapeError は学習時と推論時でシーケンス形状が一致しない場合のエラーです。
type InputShapeError struct {
	Phase    string // "training", "prediction", "build"
	Expected []int
	Got      []int
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("seqanomaly: input shape mismatch in %s phase. Expected shape %v, got %v",
		e.Phase, e.Expected, e.Got)
}

// MarshalZerologObject はzerolog.LogObjectMarshalerを実装します。
func (e *InputShapeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("phase", e.Phase).
		Ints("expected", e.Expected).
		Ints("got", e.Got).
		Str("type", "InputShapeError")
}

// NewInputShapeError は新しいInputShapeErrorを作成します。
func NewInputShapeError(phase string, expected, got []int) error {
	return errors.WithStack(&InputShapeError{Phase: phase, Expected: expected, Got: got})
}

// ValidationError はハイパーパラメータや引数の検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("seqanomaly: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerolog.LogObjectMarshalerを実装します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不正な場合のエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("seqanomaly: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError はモデル操作全般のエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("seqanomaly: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("seqanomaly: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// NumericalInstabilityError は学習中にNaNやInfを検出した場合のエラーです。
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("seqanomaly: numerical instability detected in %s at epoch %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// MarshalZerologObject はzerolog.LogObjectMarshalerを実装します。
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Int("iteration", e.Iteration).
		Floats64("values", e.Values).
		Str("type", "NumericalInstabilityError")
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	return errors.WithStack(&NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はerrのチェーン内にtargetと一致するエラーがあるかを返します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はerrのチェーン内でtargetに代入できる最初のエラーを探します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap はerrにメッセージを付与します。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf はerrに書式付きメッセージを付与します。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New はスタックトレース付きのエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf はスタックトレース付きの書式付きエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はerrにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// Mark はerrのメッセージを保ったまま Is(err, reference) が成り立つように印を付けます。
func Mark(err, reference error) error {
	return errors.Mark(err, reference)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrInterrupted はコンテキストのキャンセルで学習ループが中断された場合のエラーです。
	ErrInterrupted = New("training interrupted")
)
