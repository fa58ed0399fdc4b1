//go:build local

package main

import "fmt"

// ローカル実行時（go run --tags=local .）にのみビルドされる
func init() {
	deploymentMode = "local"
	// 本番のドキュメントに触れないよう、全コレクションに接頭辞を付ける
	collectionPrefix = "local_"

	fmt.Println("========================================")
	fmt.Println("    RUNNING IN LOCAL MODE")
	fmt.Printf("    Collection prefix: %s\n", collectionPrefix)
	fmt.Println("========================================")
}
