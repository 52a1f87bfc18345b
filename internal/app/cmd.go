package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はゲートウェイサーバーとして起動することを示す。
	CommandServe Command = "serve"
	// CommandNotify は期限通知を1回実行して終了することを示す。
	CommandNotify Command = "notify"
	// CommandToken は運用向けにアクセストークンを発行して標準出力に書き出すことを示す。
	CommandToken Command = "token"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandNotify, CommandToken, CommandHealthcheck:
		return Command(args[0])
	default:
		return CommandServe
	}
}
