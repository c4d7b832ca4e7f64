// Package tcp 提供基于 TCP + yamux 的会话传输
//
// 每个对端设备一条 TCP 连接，连接建立后先交换 hello 帧（正文为设备 ID），
// 再在其上建立 yamux 会话。每条管道连接是一条 yamux 流：打开方发送
// open 帧（正文为会话名称），接受方以 open-ack 或 open-reject 应答，
// 之后双方以 data 帧收发字节。流关闭即会话关闭。
//
// 拨号地址来自地址簿（WithPeer/AddPeer）；入站连接无需登记。
package tcp
