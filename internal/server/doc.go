// Package server は、ルートディレクトリ以下の静的ファイルを配信するHTTPサーバーです。
//
// 責務:
//   - リッスンソケットの管理と受け付けループ (Server)
//   - リクエストパスからファイルパスへの変換とインデックスファイルの補完 (PathResolver)
//   - ファイル内容の配信とヘッダーの付与 (FileResponder)
//   - 404 / 418 / 405 用エラーページの探索 (ErrorPages)
//   - 上記をまとめる1リクエスト分の処理 (Dispatcher)
//
// 仕様:
//   - GET と HEAD のみ対応。それ以外は 405
//   - ファイルがなければ 404、存在するのに読めなければ 418
//   - エラーページは root/{code}.html、root/../error.html の順に探す
//   - 1接続につき必ず1つのレスポンスを返す
//   - Stop は即時停止。処理中の接続の完了は待たない
package server
