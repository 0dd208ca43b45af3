package editor

// UIState はポインターがUIパネル上にあるかどうかを保持する
// 配置・削除はUI上の操作を無視するため、呼び出し側が毎回渡す
type UIState struct {
	overUI bool
}

// SetPointerOverUI はポインターがUI上にあるかを設定する
func (u *UIState) SetPointerOverUI(over bool) {
	u.overUI = over
}

// PointerOverUI はポインターがUI上にあるかを返す
// nil の場合は false
func (u *UIState) PointerOverUI() bool {
	return u != nil && u.overUI
}
