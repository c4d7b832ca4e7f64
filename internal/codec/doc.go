// Package codec 定义管道载荷的线格式
//
// 两层结构：
//
//   - Envelope：PipeHandler 在载荷外包一层信封，携带消息 ID、MessageType、
//     总长度和压缩标志，以 protobuf 线格式（protowire）编码
//   - Frame：TCP 传输在 yamux 流上使用的分帧，uvarint 长度前缀 + 1 字节帧类型
package codec
