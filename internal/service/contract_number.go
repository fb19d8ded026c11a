package service

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const contractNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// maxContractNumberAttempts 合同编号唯一索引冲突时的最大尝试次数
const maxContractNumberAttempts = 5

// NewContractNumber 生成 CONT-<毫秒时间戳后8位>-<4位大写base36>
func NewContractNumber(now time.Time) string {
	ms := fmt.Sprintf("%08d", now.UnixMilli()%100000000)
	var b strings.Builder
	for i := 0; i < 4; i++ {
		b.WriteByte(contractNumberAlphabet[rand.IntN(len(contractNumberAlphabet))])
	}
	return "CONT-" + ms + "-" + b.String()
}
